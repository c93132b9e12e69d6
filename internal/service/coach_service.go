package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/boundary"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/turn"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/lock"

	"github.com/google/uuid"
)

// Frame types pushed to a user's websocket connections.
const (
	EventChatDelta        = "chat.delta"
	EventChatDone         = "chat.done"
	EventSimulatorTick    = "simulator.tick"
	EventBackfillProgress = "backfill.progress"
	EventBackfillDone     = "backfill.done"
	EventSplitDone        = "split.done"
)

// EventSender pushes a frame to every live connection of a user.
type EventSender interface {
	SendEvent(userId uuid.UUID, eventType string, data interface{})
}

type ICoachService interface {
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	CloseSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	GetUnderstanding(ctx context.Context, userId uuid.UUID) (*dto.UnderstandingResponse, error)
	GetFocusAreas(ctx context.Context, userId uuid.UUID) ([]*dto.FocusAreaResponse, error)
	CreateFocusArea(ctx context.Context, userId uuid.UUID, req *dto.CreateFocusAreaRequest) (*dto.FocusAreaResponse, error)
	ArchiveFocusArea(ctx context.Context, userId, focusAreaId uuid.UUID) error
	GetSuggestions(ctx context.Context, userId uuid.UUID) (*dto.SuggestionSetResponse, error)
	SaveOnboarding(ctx context.Context, userId uuid.UUID, req *dto.SaveOnboardingRequest) error
}

type coachService struct {
	uowFactory unitofwork.RepositoryFactory
	turns      *turn.Processor
	closer     *closer.Pipeline
	seeder     *understanding.Seeder
	locker     lock.Locker
	sender     EventSender
	logger     logger.ILogger
	now        func() time.Time
}

func NewCoachService(
	uowFactory unitofwork.RepositoryFactory,
	turns *turn.Processor,
	closer *closer.Pipeline,
	seeder *understanding.Seeder,
	locker lock.Locker,
	sender EventSender,
	logger logger.ILogger,
) ICoachService {
	return &coachService{
		uowFactory: uowFactory,
		turns:      turns,
		closer:     closer,
		seeder:     seeder,
		locker:     locker,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
	}
}

type openedSession struct {
	session  *entity.CoachingSession
	created  bool
	closedId *uuid.UUID
	hours    *float64
}

// SendChat routes the message into the current session, opening a new one
// when the inactivity gap has passed, and streams the reply as it arrives.
func (s *coachService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", coach.ErrInvalidInput)
	}

	opened, err := s.openSession(ctx, userId)
	if err != nil {
		return nil, err
	}
	sessionId := opened.session.Id

	res, err := s.turns.Process(ctx, userId, sessionId, text, func(delta string) {
		s.sender.SendEvent(userId, EventChatDelta, map[string]interface{}{
			"session_id": sessionId.String(),
			"delta":      delta,
		})
	})
	if err != nil {
		return nil, err
	}
	s.sender.SendEvent(userId, EventChatDone, map[string]interface{}{
		"session_id": sessionId.String(),
		"message_id": res.AssistantMessage.Id.String(),
	})

	return &dto.SendChatResponse{
		SessionId:             sessionId,
		IsNewSession:          opened.created,
		HoursSinceLastMessage: opened.hours,
		ClosedSessionId:       opened.closedId,
		UserMessage:           toMessageResponse(res.UserMessage),
		AssistantMessage:      toMessageResponse(res.AssistantMessage),
	}, nil
}

// openSession returns the session the next message belongs to. Crossing the
// gap closes the previous active session first, so a user never has two.
func (s *coachService) openSession(ctx context.Context, userId uuid.UUID) (*openedSession, error) {
	unlock, err := s.locker.Lock(ctx, coach.OpenLockKey(realm.FromContext(ctx), userId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	last, err := uow.MessageRepository().FindLastByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	var lastAt *time.Time
	if last != nil {
		lastAt = &last.CreatedAt
	}
	detection := boundary.Detect(lastAt, s.now())
	opened := &openedSession{}
	if lastAt != nil {
		hours := detection.HoursSinceLastMessage
		opened.hours = &hours
	}

	active, err := uow.CoachingSessionRepository().FindActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if active != nil {
		count, err := uow.MessageRepository().CountBySession(ctx, active.Id)
		if err != nil {
			return nil, err
		}
		if count == 0 || !detection.IsNewSession {
			opened.session = active
			return opened, nil
		}

		if _, err := s.closer.Close(ctx, active.Id); err != nil && !errors.Is(err, coach.ErrStateConflict) {
			return nil, fmt.Errorf("close previous session: %w", err)
		}
		closedId := active.Id
		opened.closedId = &closedId
	}

	total, err := uow.CoachingSessionRepository().CountByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		s.seedFirstSession(ctx, userId)
	}

	session := &entity.CoachingSession{
		Id:        uuid.New(),
		UserId:    userId,
		Status:    constant.SessionStatusActive,
		CreatedAt: s.now(),
	}
	if err := uow.CoachingSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.logger.Info(logger.ModuleChat, "Session opened", map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": session.Id.String(),
	})

	opened.session = session
	opened.created = true
	return opened, nil
}

// seedFirstSession gives a brand new user an understanding and focus areas
// from onboarding so the first briefing has something to plan from. Failures
// are logged; the session opens either way.
func (s *coachService) seedFirstSession(ctx context.Context, userId uuid.UUID) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	onboarding, err := uow.OnboardingRepository().FindByUser(ctx, userId)
	if err != nil || onboarding == nil {
		return
	}

	existing, err := uow.UnderstandingRepository().FindByUser(ctx, userId)
	if err == nil && existing == nil {
		seeded, err := s.seeder.Seed(ctx, userId, onboarding)
		if err != nil {
			s.logger.Warn(logger.ModuleChat, "First session seeding failed", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
		} else if err := uow.UnderstandingRepository().Upsert(ctx, seeded); err != nil {
			s.logger.Error(logger.ModuleChat, "Failed to store seeded understanding", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
		}
	}

	areas, err := uow.FocusAreaRepository().FindAllByUser(ctx, userId)
	if err != nil || len(areas) > 0 {
		return
	}
	for _, goal := range onboarding.Goals {
		if strings.TrimSpace(goal) == "" {
			continue
		}
		area := &entity.FocusArea{
			Id:     uuid.New(),
			UserId: userId,
			Text:   strings.TrimSpace(goal),
			Source: constant.FocusAreaSourceOnboarding,
		}
		if err := uow.FocusAreaRepository().Create(ctx, area); err != nil {
			s.logger.Error(logger.ModuleChat, "Failed to create focus area", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
			return
		}
	}
}

func (s *coachService) ownedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.CoachingSession, error) {
	session, err := uow.CoachingSessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, fmt.Errorf("%w: session %s", coach.ErrNotFound, sessionId)
	}
	return session, nil
}

func (s *coachService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	sessions, err := s.uowFactory.NewUnitOfWork(ctx).CoachingSessionRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	// Newest first for the client.
	res := make([]*dto.SessionResponse, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		res = append(res, toSessionResponse(sessions[i]))
	}
	return res, nil
}

func (s *coachService) GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.ownedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	messages, err := uow.MessageRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return &dto.SessionDetailResponse{
		SessionResponse: *toSessionResponse(session),
		Messages:        toMessageResponses(messages),
	}, nil
}

func (s *coachService) CloseSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	if _, err := s.ownedSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId); err != nil {
		return nil, err
	}
	session, err := s.closer.Close(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *coachService) GetUnderstanding(ctx context.Context, userId uuid.UUID) (*dto.UnderstandingResponse, error) {
	u, err := s.uowFactory.NewUnitOfWork(ctx).UnderstandingRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: no understanding yet", coach.ErrNotFound)
	}
	return toUnderstandingResponse(u), nil
}

func (s *coachService) GetFocusAreas(ctx context.Context, userId uuid.UUID) ([]*dto.FocusAreaResponse, error) {
	areas, err := s.uowFactory.NewUnitOfWork(ctx).FocusAreaRepository().FindActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.FocusAreaResponse, 0, len(areas))
	for _, a := range areas {
		res = append(res, toFocusAreaResponse(a))
	}
	return res, nil
}

func (s *coachService) CreateFocusArea(ctx context.Context, userId uuid.UUID, req *dto.CreateFocusAreaRequest) (*dto.FocusAreaResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty focus area", coach.ErrInvalidInput)
	}
	area := &entity.FocusArea{
		Id:        uuid.New(),
		UserId:    userId,
		Text:      text,
		Source:    constant.FocusAreaSourceUser,
		CreatedAt: s.now(),
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).FocusAreaRepository().Create(ctx, area); err != nil {
		return nil, err
	}
	return toFocusAreaResponse(area), nil
}

func (s *coachService) ArchiveFocusArea(ctx context.Context, userId, focusAreaId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	area, err := uow.FocusAreaRepository().FindById(ctx, focusAreaId)
	if err != nil {
		return err
	}
	if area == nil || area.UserId != userId {
		return fmt.Errorf("%w: focus area %s", coach.ErrNotFound, focusAreaId)
	}
	return uow.FocusAreaRepository().Archive(ctx, focusAreaId)
}

func (s *coachService) GetSuggestions(ctx context.Context, userId uuid.UUID) (*dto.SuggestionSetResponse, error) {
	set, err := s.uowFactory.NewUnitOfWork(ctx).SuggestionSetRepository().FindLatestByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("%w: no suggestions yet", coach.ErrNotFound)
	}
	return &dto.SuggestionSetResponse{
		Suggestions:             set.Suggestions,
		GeneratedAfterSessionId: set.GeneratedAfterSessionId,
		CreatedAt:               set.CreatedAt,
	}, nil
}

func (s *coachService) SaveOnboarding(ctx context.Context, userId uuid.UUID, req *dto.SaveOnboardingRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.OnboardingRepository().FindByUser(ctx, userId)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &entity.OnboardingProfile{Id: uuid.New(), UserId: userId, CreatedAt: s.now()}
	}
	profile.Answers = req.Answers
	profile.Goals = req.Goals
	return uow.OnboardingRepository().Upsert(ctx, profile)
}
