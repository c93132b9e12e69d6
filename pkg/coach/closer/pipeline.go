// Package closer ends coaching sessions. The fast path writes notes and marks
// the session completed; the slow path, run from the task queue, evolves the
// user's understanding and refreshes suggestions.
package closer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/notes"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/coach/suggestion"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/events"
	"money-coach-be/pkg/lock"
	"money-coach-be/pkg/taskqueue"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("money-coach-be/pkg/coach/closer")

const suggestionWins = 5

// Enqueuer hands the slow path to a durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task taskqueue.Task) error
}

type Pipeline struct {
	factory     unitofwork.RepositoryFactory
	notes       *notes.Writer
	evolver     *understanding.Evolver
	suggestions *suggestion.Generator
	queue       Enqueuer
	locker      lock.Locker
	publisher   *events.Publisher
	logger      logger.ILogger
}

type Deps struct {
	Factory     unitofwork.RepositoryFactory
	Notes       *notes.Writer
	Evolver     *understanding.Evolver
	Suggestions *suggestion.Generator
	Queue       Enqueuer
	Locker      lock.Locker
	Publisher   *events.Publisher
	Logger      logger.ILogger
}

func NewPipeline(d Deps) *Pipeline {
	return &Pipeline{
		factory:     d.Factory,
		notes:       d.Notes,
		evolver:     d.Evolver,
		suggestions: d.Suggestions,
		queue:       d.Queue,
		locker:      d.Locker,
		publisher:   d.Publisher,
		logger:      d.Logger,
	}
}

// Close completes an active session and schedules its slow path.
func (p *Pipeline) Close(ctx context.Context, sessionId uuid.UUID) (*entity.CoachingSession, error) {
	ctx, span := tracer.Start(ctx, "closer.Close")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionId.String()))

	r := realm.FromContext(ctx)
	unlock, err := p.locker.Lock(ctx, coach.SessionLockKey(r, sessionId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	uow := p.factory.NewUnitOfWork(ctx)
	session, err := uow.CoachingSessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", coach.ErrNotFound, sessionId)
	}
	if session.Status != constant.SessionStatusActive {
		return nil, fmt.Errorf("%w: session is %s", coach.ErrStateConflict, session.Status)
	}

	messages, err := uow.MessageRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	current, err := uow.UnderstandingRepository().FindByUser(ctx, session.UserId)
	if err != nil {
		return nil, err
	}

	sessionNotes, err := p.notes.Write(ctx, session, messages, current)
	if err != nil {
		p.logger.Warn(logger.ModuleClose, "Notes generation failed, using fallback", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		sessionNotes = notes.Fallback(session, messages)
	}

	cards, err := uow.RewireCardRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	sessionNotes.CardsCreated = make([]string, 0, len(cards))
	for _, c := range cards {
		sessionNotes.CardsCreated = append(sessionNotes.CardsCreated, c.Title)
	}

	now := time.Now()
	session.Notes = sessionNotes
	session.Title = sessionNotes.Headline
	session.Status = constant.SessionStatusCompleted
	session.CompletedAt = &now
	if current != nil {
		snapshot := current.Narrative
		session.NarrativeSnapshot = &snapshot
	}
	if err := uow.CoachingSessionRepository().Update(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update session")
		return nil, fmt.Errorf("complete session: %w", err)
	}

	task := taskqueue.Task{
		Type:      taskqueue.TypeSessionClose,
		SessionId: session.Id,
		UserId:    session.UserId,
		Realm:     string(r),
	}
	if err := p.queue.Enqueue(ctx, task); err != nil {
		p.logger.Error(logger.ModuleClose, "Enqueue failed, running slow path inline", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		go func(ctx context.Context) {
			if err := p.RunBackground(ctx, task); err != nil {
				p.logger.Error(logger.ModuleClose, "Inline slow path failed", map[string]interface{}{
					"session_id": task.SessionId.String(),
					"error":      err.Error(),
				})
			}
		}(context.WithoutCancel(ctx))
	}

	p.publisher.PublishSessionClosed(ctx, session.UserId, session.Id, string(r), sessionNotes.Headline)
	p.logger.Info(logger.ModuleClose, "Session closed", map[string]interface{}{
		"session_id": session.Id.String(),
		"user_id":    session.UserId.String(),
		"messages":   len(messages),
	})
	return session, nil
}

// RunBackground is the slow path for a completed session. Every step checks
// whether it already ran, so redelivery is safe. A returned error asks the
// queue to retry.
func (p *Pipeline) RunBackground(ctx context.Context, task taskqueue.Task) error {
	if r := realm.Realm(task.Realm); r.Valid() {
		ctx = realm.WithRealm(ctx, r)
	}
	ctx, span := tracer.Start(ctx, "closer.RunBackground")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", task.SessionId.String()))

	uow := p.factory.NewUnitOfWork(ctx)
	session, err := uow.CoachingSessionRepository().FindById(ctx, task.SessionId)
	if err != nil {
		return err
	}
	if session == nil || session.Status != constant.SessionStatusCompleted {
		p.logger.Warn(logger.ModuleEvolve, "Skipping slow path for session that is not completed", map[string]interface{}{
			"session_id": task.SessionId.String(),
		})
		return nil
	}

	unlock, err := p.locker.Lock(ctx, coach.UserLockKey(uow.Realm(), session.UserId))
	if err != nil {
		return err
	}
	defer unlock()

	messages, err := uow.MessageRepository().FindBySession(ctx, session.Id)
	if err != nil {
		return err
	}
	if prompt.Transcript(messages) == "" {
		return nil
	}

	var errs []error
	if err := p.evolve(ctx, session, messages); err != nil {
		errs = append(errs, fmt.Errorf("evolve: %w", err))
	}
	if err := p.refreshSuggestions(ctx, session); err != nil {
		errs = append(errs, fmt.Errorf("suggestions: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "slow path")
		return err
	}
	return nil
}

// evolve rewrites the understanding in one transaction and then stores the
// focus-area reflections on their own. The model call happens outside the
// transaction; a concurrent write in the meantime is a conflict and the task
// is retried.
func (p *Pipeline) evolve(ctx context.Context, session *entity.CoachingSession, messages []*entity.Message) error {
	uow := p.factory.NewUnitOfWork(ctx)
	current, err := uow.UnderstandingRepository().FindByUser(ctx, session.UserId)
	if err != nil {
		return err
	}
	if current != nil && current.EvolvedAfterSessionId != nil && *current.EvolvedAfterSessionId == session.Id {
		return nil
	}
	areas, err := uow.FocusAreaRepository().FindActiveByUser(ctx, session.UserId)
	if err != nil {
		return err
	}

	evo, err := p.evolver.Evolve(ctx, current, messages, areas)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	latest, err := uow.UnderstandingRepository().FindByUserForUpdate(ctx, session.UserId)
	if err != nil {
		return err
	}
	if !sameVersion(current, latest) {
		return fmt.Errorf("%w: understanding changed during evolution", coach.ErrStateConflict)
	}
	next := understanding.Apply(latest, session.UserId, evo, session.Id)
	if err := uow.UnderstandingRepository().Upsert(ctx, next); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	p.publisher.PublishUnderstandingEvolved(ctx, session.UserId, session.Id, string(uow.Realm()), next.StageOfChange)
	stored := p.appendReflections(ctx, session, understanding.Reflections(evo, areas, session.Id, session.CreatedAt))
	p.logger.Info(logger.ModuleEvolve, "Understanding evolved", map[string]interface{}{
		"session_id":  session.Id.String(),
		"user_id":     session.UserId.String(),
		"reflections": stored,
	})
	return nil
}

// appendReflections is best effort: a failure is logged and the evolved
// understanding stays. It returns how many reflections were stored.
func (p *Pipeline) appendReflections(ctx context.Context, session *entity.CoachingSession, refs []*entity.FocusAreaReflection) int {
	if len(refs) == 0 {
		return 0
	}
	if err := p.factory.NewUnitOfWork(ctx).FocusAreaRepository().AppendReflections(ctx, refs); err != nil {
		p.logger.Warn(logger.ModuleEvolve, "Storing focus-area reflections failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return 0
	}
	return len(refs)
}

func sameVersion(a, b *entity.Understanding) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Narrative != b.Narrative {
		return false
	}
	if a.EvolvedAfterSessionId == nil || b.EvolvedAfterSessionId == nil {
		return a.EvolvedAfterSessionId == nil && b.EvolvedAfterSessionId == nil
	}
	return *a.EvolvedAfterSessionId == *b.EvolvedAfterSessionId
}

func (p *Pipeline) refreshSuggestions(ctx context.Context, session *entity.CoachingSession) error {
	uow := p.factory.NewUnitOfWork(ctx)
	exists, err := uow.SuggestionSetRepository().ExistsForSession(ctx, session.Id)
	if err != nil || exists {
		return err
	}

	in, err := GatherSuggestionContext(ctx, uow, session.UserId, session.Notes)
	if err != nil {
		return err
	}
	items, err := p.suggestions.Generate(ctx, in)
	if err != nil {
		return err
	}
	sid := session.Id
	return uow.SuggestionSetRepository().Create(ctx, &entity.SuggestionSet{
		Id:                      uuid.New(),
		UserId:                  session.UserId,
		Suggestions:             items,
		GeneratedAfterSessionId: &sid,
	})
}

// GatherSuggestionContext loads what the suggestion prompt needs for userId.
func GatherSuggestionContext(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, latest *entity.SessionNotes) (suggestion.Context, error) {
	var in suggestion.Context
	var err error
	if in.Understanding, err = uow.UnderstandingRepository().FindByUser(ctx, userId); err != nil {
		return in, err
	}
	if in.Cards, err = uow.RewireCardRepository().FindAllByUser(ctx, userId); err != nil {
		return in, err
	}
	if in.Wins, err = uow.WinRepository().FindRecentByUser(ctx, userId, suggestionWins); err != nil {
		return in, err
	}
	if in.FocusAreas, err = uow.FocusAreaRepository().FindActiveByUser(ctx, userId); err != nil {
		return in, err
	}
	previous, err := uow.SuggestionSetRepository().FindLatestByUser(ctx, userId)
	if err != nil {
		return in, err
	}
	in.PreviousTitles = previous.Titles()
	in.LatestNotes = latest
	return in, nil
}
