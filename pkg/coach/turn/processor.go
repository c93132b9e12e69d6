// Package turn runs one coaching chat exchange: plan, history, streaming
// reply, persistence.
package turn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/briefing"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"
	"money-coach-be/pkg/lock"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("money-coach-be/pkg/coach/turn")

// greetingNudge stands in for the user when the coach speaks first; some
// backends reject a history with no user message.
const greetingNudge = "(The user opened a new session.)"

// Result holds the two messages persisted by a turn.
type Result struct {
	UserMessage      *entity.Message
	AssistantMessage *entity.Message
}

type Processor struct {
	factory   unitofwork.RepositoryFactory
	provider  llm.LLMProvider
	briefings *briefing.Service
	locker    lock.Locker
	logger    logger.ILogger
}

func NewProcessor(factory unitofwork.RepositoryFactory, provider llm.LLMProvider, briefings *briefing.Service, locker lock.Locker, logger logger.ILogger) *Processor {
	return &Processor{
		factory:   factory,
		provider:  provider,
		briefings: briefings,
		locker:    locker,
		logger:    logger,
	}
}

// Process appends text as a user message and streams the coach reply through
// onDelta. A failed generation stores the fallback reply instead of erroring.
func (p *Processor) Process(ctx context.Context, userId, sessionId uuid.UUID, text string, onDelta func(string)) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", coach.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "turn.Process")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionId.String()))

	unlock, err := p.locker.Lock(ctx, coach.SessionLockKey(realm.FromContext(ctx), sessionId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := p.factory.NewUnitOfWork(ctx)
	session, err := p.activeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	count, err := uow.MessageRepository().CountBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	system, err := p.systemPrompt(ctx, uow, session, count == 0, prompt.CoachSystem)
	if err != nil {
		return nil, err
	}

	userMsg := &entity.Message{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    userId,
		Role:      constant.MessageRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	recent, err := uow.MessageRepository().FindRecentBySession(ctx, sessionId, constant.HistoryWindow)
	if err != nil {
		return nil, err
	}
	history := []llm.Message{{Role: "system", Content: system}}
	history = append(history, toHistory(recent)...)

	assistant, err := p.reply(ctx, uow, session, history, onDelta)
	if err != nil {
		return nil, err
	}
	return &Result{UserMessage: userMsg, AssistantMessage: assistant}, nil
}

// Greet lets the coach open an empty session.
func (p *Processor) Greet(ctx context.Context, userId, sessionId uuid.UUID, onDelta func(string)) (*entity.Message, error) {
	ctx, span := tracer.Start(ctx, "turn.Greet")
	defer span.End()

	unlock, err := p.locker.Lock(ctx, coach.SessionLockKey(realm.FromContext(ctx), sessionId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := p.factory.NewUnitOfWork(ctx)
	session, err := p.activeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	count, err := uow.MessageRepository().CountBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: session already started", coach.ErrStateConflict)
	}

	system, err := p.systemPrompt(ctx, uow, session, true, prompt.CoachGreeting)
	if err != nil {
		return nil, err
	}
	history := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: greetingNudge},
	}
	return p.reply(ctx, uow, session, history, onDelta)
}

func (p *Processor) activeSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.CoachingSession, error) {
	session, err := uow.CoachingSessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, fmt.Errorf("%w: session %s", coach.ErrNotFound, sessionId)
	}
	if session.Status != constant.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is %s", coach.ErrStateConflict, session.Status)
	}
	return session, nil
}

// systemPrompt loads the plan for the session. The first turn of a session
// recomputes the briefing and copies it onto the session row.
func (p *Processor) systemPrompt(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.CoachingSession, first bool, build func(prompt.CoachInput) string) (string, error) {
	b, err := p.briefings.Ensure(ctx, session.UserId, first)
	if err != nil {
		return "", err
	}
	if first || session.Hypothesis == "" {
		session.Hypothesis = b.Hypothesis
		session.LeveragePoint = b.LeveragePoint
		session.Curiosities = b.Curiosities
		session.OpeningDirection = b.OpeningDirection
		if err := uow.CoachingSessionRepository().Update(ctx, session); err != nil {
			return "", fmt.Errorf("stamp session plan: %w", err)
		}
	}

	understanding, err := uow.UnderstandingRepository().FindByUser(ctx, session.UserId)
	if err != nil {
		return "", err
	}
	areas, err := uow.FocusAreaRepository().FindActiveByUser(ctx, session.UserId)
	if err != nil {
		return "", err
	}
	return build(prompt.CoachInput{
		Briefing:      b,
		Understanding: understanding,
		FocusAreas:    areas,
	}), nil
}

func (p *Processor) reply(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.CoachingSession, history []llm.Message, onDelta func(string)) (*entity.Message, error) {
	text, err := p.provider.ChatStream(ctx, history, onDelta, llm.WithTemperature(0.7))
	fallback := false
	if err != nil || strings.TrimSpace(text) == "" {
		details := map[string]interface{}{"session_id": session.Id.String()}
		if err != nil {
			details["error"] = err.Error()
		}
		p.logger.Warn(logger.ModuleChat, "Coach reply failed, sending fallback", details)
		text = constant.FallbackReply
		fallback = true
		if onDelta != nil {
			onDelta(text)
		}
	}

	msg := &entity.Message{
		Id:         uuid.New(),
		SessionId:  session.Id,
		UserId:     session.UserId,
		Role:       constant.MessageRoleAssistant,
		Content:    text,
		IsFallback: fallback,
		CreatedAt:  time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	return msg, nil
}

// toHistory maps stored messages to model messages, leaving out fallback
// replies.
func toHistory(messages []*entity.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.IsFallback {
			continue
		}
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
