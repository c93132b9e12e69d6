// Package briefing loads and recomputes the coach's per-session plan.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	recentWins     = 5
	recentSessions = 3
	maxCards       = 10
)

type output struct {
	Hypothesis           string   `json:"hypothesis"`
	LeveragePoint        string   `json:"leverage_point"`
	Curiosities          []string `json:"curiosities"`
	OpeningDirection     string   `json:"opening_direction"`
	TensionType          string   `json:"tension_type"`
	SecondaryTensionType string   `json:"secondary_tension_type"`
}

type Service struct {
	factory  unitofwork.RepositoryFactory
	provider llm.LLMProvider
	cache    *Cache
	logger   logger.ILogger
}

func NewService(factory unitofwork.RepositoryFactory, provider llm.LLMProvider, cache *Cache, logger logger.ILogger) *Service {
	return &Service{
		factory:  factory,
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Latest returns the most recent briefing or nil.
func (s *Service) Latest(ctx context.Context, userId uuid.UUID) (*entity.Briefing, error) {
	r := realm.FromContext(ctx)
	if b, ok := s.cache.Get(r, userId); ok {
		return b, nil
	}
	b, err := s.factory.NewUnitOfWork(ctx).BriefingRepository().FindLatestByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	s.cache.Set(r, b)
	return b, nil
}

// Ensure returns a usable briefing. With refresh (a session boundary was just
// crossed) or when none exists, a new one is computed. A failed computation
// falls back to the prior briefing; with no prior it returns ErrNoBriefing.
func (s *Service) Ensure(ctx context.Context, userId uuid.UUID, refresh bool) (*entity.Briefing, error) {
	prior, err := s.Latest(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("load briefing: %w", err)
	}
	if prior != nil && !refresh {
		return prior, nil
	}

	fresh, err := s.compute(ctx, userId, prior)
	if err != nil {
		if prior != nil {
			s.logger.Warn(logger.ModuleBriefing, "Briefing recompute failed, using prior", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
			return prior, nil
		}
		s.logger.Error(logger.ModuleBriefing, "Briefing recompute failed with no prior", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", coach.ErrNoBriefing, err)
	}
	return fresh, nil
}

func (s *Service) compute(ctx context.Context, userId uuid.UUID, prior *entity.Briefing) (*entity.Briefing, error) {
	uow := s.factory.NewUnitOfWork(ctx)

	understanding, err := uow.UnderstandingRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	wins, err := uow.WinRepository().FindRecentByUser(ctx, userId, recentWins)
	if err != nil {
		return nil, err
	}
	cards, err := uow.RewireCardRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if len(cards) > maxCards {
		cards = cards[:maxCards]
	}
	sessions, err := uow.CoachingSessionRepository().FindRecentCompletedByUser(ctx, userId, recentSessions)
	if err != nil {
		return nil, err
	}
	var notes []*entity.SessionNotes
	for _, sess := range sessions {
		if sess.Notes != nil {
			notes = append(notes, sess.Notes)
		}
	}

	classify := understanding == nil || understanding.TensionType == ""
	text := prompt.Briefing(prompt.BriefingInput{
		Understanding: understanding,
		Prior:         prior,
		Wins:          wins,
		Cards:         cards,
		RecentNotes:   notes,
		Classify:      classify,
	})

	var out output
	if err := llm.GenerateStructured(ctx, s.provider, text, &out, llm.WithTemperature(0.4)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Hypothesis) == "" {
		return nil, fmt.Errorf("%w: briefing without hypothesis", llm.ErrParse)
	}

	b := &entity.Briefing{
		Id:                   uuid.New(),
		UserId:               userId,
		Hypothesis:           out.Hypothesis,
		LeveragePoint:        out.LeveragePoint,
		Curiosities:          out.Curiosities,
		OpeningDirection:     out.OpeningDirection,
		TensionType:          out.TensionType,
		SecondaryTensionType: out.SecondaryTensionType,
		CreatedAt:            time.Now(),
	}
	if err := uow.BriefingRepository().Create(ctx, b); err != nil {
		return nil, fmt.Errorf("persist briefing: %w", err)
	}
	s.cache.Set(realm.FromContext(ctx), b)

	if classify && understanding != nil && out.TensionType != "" {
		if err := s.fillTension(ctx, userId, out); err != nil {
			s.logger.Error(logger.ModuleBriefing, "Failed to store tension classification", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
		}
	}

	s.logger.Info(logger.ModuleBriefing, "Briefing computed", map[string]interface{}{
		"user_id":     userId.String(),
		"briefing_id": b.Id.String(),
	})
	return b, nil
}

// fillTension stores the first tension classification without touching the
// rest of the understanding.
func (s *Service) fillTension(ctx context.Context, userId uuid.UUID, out output) error {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	current, err := uow.UnderstandingRepository().FindByUserForUpdate(ctx, userId)
	if err != nil {
		return err
	}
	if current == nil || current.TensionType != "" {
		return nil
	}
	current.TensionType = out.TensionType
	current.SecondaryTensionType = out.SecondaryTensionType
	if err := uow.UnderstandingRepository().Upsert(ctx, current); err != nil {
		return err
	}
	return uow.Commit()
}
