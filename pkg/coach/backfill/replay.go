// Package backfill re-derives a user's long-lived coaching state from raw
// history: seed from onboarding, then evolve through every session oldest
// first.
package backfill

import (
	"context"
	"fmt"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/coach/suggestion"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/events"
	"money-coach-be/pkg/lock"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	StageSeed      = "seed"
	StageSession   = "session"
	StageSuggest   = "suggestions"
	StageCompleted = "completed"
)

// Progress is reported after each step. Err is set when the step failed and
// the replay moved on.
type Progress struct {
	Stage     string
	SessionId uuid.UUID
	Index     int
	Total     int
	Err       error
}

type Result struct {
	FinalUnderstanding *entity.Understanding
	SessionsProcessed  int
	Failed             int
}

type Replayer struct {
	factory     unitofwork.RepositoryFactory
	seeder      *understanding.Seeder
	evolver     *understanding.Evolver
	suggestions *suggestion.Generator
	locker      lock.Locker
	publisher   *events.Publisher
	logger      logger.ILogger
}

type Deps struct {
	Factory     unitofwork.RepositoryFactory
	Seeder      *understanding.Seeder
	Evolver     *understanding.Evolver
	Suggestions *suggestion.Generator
	Locker      lock.Locker
	Publisher   *events.Publisher
	Logger      logger.ILogger
}

func NewReplayer(d Deps) *Replayer {
	return &Replayer{
		factory:     d.Factory,
		seeder:      d.Seeder,
		evolver:     d.Evolver,
		suggestions: d.Suggestions,
		locker:      d.Locker,
		publisher:   d.Publisher,
		logger:      d.Logger,
	}
}

// Replay rebuilds the user's understanding. The running understanding is
// threaded through the loop rather than re-read, so each session evolves
// exactly the result of the previous one.
func (r *Replayer) Replay(ctx context.Context, userId uuid.UUID, onProgress func(Progress)) (*Result, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	uow := r.factory.NewUnitOfWork(ctx)
	unlock, err := r.locker.Lock(ctx, coach.UserLockKey(uow.Realm(), userId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	onboarding, err := uow.OnboardingRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	stored, err := uow.UnderstandingRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	current, seeded := r.seed(ctx, userId, onboarding, onProgress)
	current = keepTension(current, stored, userId)

	areas, err := r.prepareFocusAreas(ctx, uow, userId, onboarding)
	if err != nil {
		return nil, err
	}

	all, err := uow.CoachingSessionRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	var sessions []*entity.CoachingSession
	for _, s := range all {
		if s.Status == constant.SessionStatusCompleted {
			sessions = append(sessions, s)
		}
	}

	res := &Result{}
	for i, s := range sessions {
		next, err := r.replaySession(ctx, s, current, areas)
		onProgress(Progress{Stage: StageSession, SessionId: s.Id, Index: i + 1, Total: len(sessions), Err: err})
		if err != nil {
			res.Failed++
			r.logger.Warn(logger.ModuleBackfill, "Session replay failed, continuing", map[string]interface{}{
				"user_id":    userId.String(),
				"session_id": s.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		if next != nil {
			current = next
			res.SessionsProcessed++
		}
	}

	if current != nil && res.SessionsProcessed == 0 {
		if err := uow.UnderstandingRepository().Upsert(ctx, current); err != nil {
			return nil, fmt.Errorf("store seeded understanding: %w", err)
		}
	}

	err = r.finalSuggestions(ctx, uow, userId, sessions, seeded)
	onProgress(Progress{Stage: StageSuggest, Err: err})

	res.FinalUnderstanding = current
	r.publisher.PublishBackfillCompleted(ctx, userId, string(uow.Realm()), res.SessionsProcessed, res.Failed)
	onProgress(Progress{Stage: StageCompleted, Index: len(sessions), Total: len(sessions)})
	r.logger.Info(logger.ModuleBackfill, "Backfill completed", map[string]interface{}{
		"user_id":   userId.String(),
		"processed": res.SessionsProcessed,
		"failed":    res.Failed,
	})
	return res, nil
}

// seed runs the narrative and suggestion seeds in parallel. Either may fail
// without stopping the replay.
func (r *Replayer) seed(ctx context.Context, userId uuid.UUID, onboarding *entity.OnboardingProfile, onProgress func(Progress)) (*entity.Understanding, []entity.Suggestion) {
	if onboarding == nil {
		return nil, nil
	}
	var (
		narrative   *entity.Understanding
		suggestions []entity.Suggestion
		g           errgroup.Group
	)
	g.Go(func() error {
		u, err := r.seeder.Seed(ctx, userId, onboarding)
		if err != nil {
			onProgress(Progress{Stage: StageSeed, Err: err})
			return nil
		}
		narrative = u
		return nil
	})
	g.Go(func() error {
		s, err := r.suggestions.Seed(ctx, onboarding)
		if err != nil {
			onProgress(Progress{Stage: StageSeed, Err: err})
			return nil
		}
		suggestions = s
		return nil
	})
	_ = g.Wait()
	return narrative, suggestions
}

// keepTension carries the stored tension classification over to the rebuilt
// understanding, which has none of its own.
func keepTension(current, stored *entity.Understanding, userId uuid.UUID) *entity.Understanding {
	if stored == nil || stored.TensionType == "" {
		return current
	}
	if current == nil {
		current = &entity.Understanding{Id: uuid.New(), UserId: userId}
	}
	current.TensionType = stored.TensionType
	current.SecondaryTensionType = stored.SecondaryTensionType
	return current
}

func (r *Replayer) prepareFocusAreas(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, onboarding *entity.OnboardingProfile) ([]*entity.FocusArea, error) {
	existing, err := uow.FocusAreaRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if err := uow.FocusAreaRepository().ResetReflections(ctx, userId); err != nil {
			return nil, fmt.Errorf("reset reflections: %w", err)
		}
	} else if onboarding != nil {
		for _, goal := range onboarding.Goals {
			if err := uow.FocusAreaRepository().Create(ctx, &entity.FocusArea{
				Id:     uuid.New(),
				UserId: userId,
				Text:   goal,
				Source: constant.FocusAreaSourceOnboarding,
			}); err != nil {
				return nil, fmt.Errorf("create focus area: %w", err)
			}
		}
	}
	return uow.FocusAreaRepository().FindActiveByUser(ctx, userId)
}

// replaySession evolves current through one session and stores the result.
// A session without usable transcript returns nil, nil.
func (r *Replayer) replaySession(ctx context.Context, s *entity.CoachingSession, current *entity.Understanding, areas []*entity.FocusArea) (*entity.Understanding, error) {
	uow := r.factory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindBySession(ctx, s.Id)
	if err != nil {
		return nil, err
	}
	if prompt.Transcript(messages) == "" {
		return nil, nil
	}

	evo, err := r.evolver.Evolve(ctx, current, messages, areas)
	if err != nil {
		return nil, err
	}
	next := understanding.Apply(current, s.UserId, evo, s.Id)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if current != nil {
		snapshot := current.Narrative
		s.NarrativeSnapshot = &snapshot
	} else {
		s.NarrativeSnapshot = nil
	}
	if err := uow.CoachingSessionRepository().Update(ctx, s); err != nil {
		return nil, err
	}
	if err := uow.UnderstandingRepository().Upsert(ctx, next); err != nil {
		return nil, err
	}
	if refs := understanding.Reflections(evo, areas, s.Id, s.CreatedAt); len(refs) > 0 {
		if err := uow.FocusAreaRepository().AppendReflections(ctx, refs); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return next, nil
}

// finalSuggestions stores a set keyed to the last session, or the seeded set
// when the user has no sessions yet.
func (r *Replayer) finalSuggestions(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessions []*entity.CoachingSession, seeded []entity.Suggestion) error {
	if len(sessions) == 0 {
		if len(seeded) == 0 {
			return nil
		}
		return uow.SuggestionSetRepository().Create(ctx, &entity.SuggestionSet{
			Id:          uuid.New(),
			UserId:      userId,
			Suggestions: seeded,
			CreatedAt:   time.Now(),
		})
	}

	last := sessions[len(sessions)-1]
	exists, err := uow.SuggestionSetRepository().ExistsForSession(ctx, last.Id)
	if err != nil || exists {
		return err
	}
	in, err := closer.GatherSuggestionContext(ctx, uow, userId, last.Notes)
	if err != nil {
		return err
	}
	items, err := r.suggestions.Generate(ctx, in)
	if err != nil {
		return err
	}
	sid := last.Id
	return uow.SuggestionSetRepository().Create(ctx, &entity.SuggestionSet{
		Id:                      uuid.New(),
		UserId:                  userId,
		Suggestions:             items,
		GeneratedAfterSessionId: &sid,
	})
}
