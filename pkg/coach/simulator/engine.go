// Package simulator drives synthetic coaching conversations, one tick per
// exchange, through the same turn and close pipeline real users go through.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/cards"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/turn"
	"money-coach-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("money-coach-be/pkg/coach/simulator")

// TickResult reports one step of a run. Messages are nil when the step did
// not produce them.
type TickResult struct {
	Run              *entity.SimulatorRun
	// Greeting is set when a manual tick opened a cloned profile's session
	// with a greeting before the supplied message.
	Greeting         *entity.Message
	UserMessage      *entity.Message
	AssistantMessage *entity.Message
	Done             bool
	Reason           string
}

type Engine struct {
	factory      unitofwork.RepositoryFactory
	turns        *turn.Processor
	closer       *closer.Pipeline
	cards        *cards.Engine
	agent        *UserAgent
	publisher    *events.Publisher
	logger       logger.ILogger
	defaultTurns int
}

type Deps struct {
	Factory      unitofwork.RepositoryFactory
	Turns        *turn.Processor
	Closer       *closer.Pipeline
	Cards        *cards.Engine
	Agent        *UserAgent
	Publisher    *events.Publisher
	Logger       logger.ILogger
	DefaultTurns int
}

func NewEngine(d Deps) *Engine {
	if d.DefaultTurns <= 0 {
		d.DefaultTurns = constant.DefaultSimulatorTurns
	}
	return &Engine{
		factory:      d.Factory,
		turns:        d.Turns,
		closer:       d.Closer,
		cards:        d.Cards,
		agent:        d.Agent,
		publisher:    d.Publisher,
		logger:       d.Logger,
		defaultTurns: d.DefaultTurns,
	}
}

func simulation(ctx context.Context) context.Context {
	return realm.WithRealm(ctx, realm.Simulation)
}

func isTerminal(run *entity.SimulatorRun) bool {
	return run.Status == constant.RunStatusCompleted || run.Status == constant.RunStatusFailed
}

// Start opens a session for the profile and a running run that owns it. An
// active session left over from an earlier run is failed first.
func (e *Engine) Start(ctx context.Context, profileId uuid.UUID, mode string, numTurns *int) (*entity.SimulatorRun, error) {
	ctx = simulation(ctx)
	switch mode {
	case constant.RunModeAutomated:
		if numTurns == nil {
			n := e.defaultTurns
			numTurns = &n
		}
	case constant.RunModeManual:
	default:
		return nil, fmt.Errorf("%w: unknown run mode %q", coach.ErrInvalidInput, mode)
	}
	if numTurns != nil && *numTurns < 1 {
		return nil, fmt.Errorf("%w: numTurns must be positive", coach.ErrInvalidInput)
	}

	uow := e.factory.NewUnitOfWork(ctx)
	profile, err := uow.SimProfileRepository().FindById(ctx, profileId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", coach.ErrNotFound, profileId)
	}
	if err := e.failStale(ctx, uow, profile.Id); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session := &entity.CoachingSession{
		Id:        uuid.New(),
		UserId:    profile.Id,
		Status:    constant.SessionStatusActive,
		CreatedAt: time.Now(),
	}
	if err := uow.CoachingSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	run := &entity.SimulatorRun{
		Id:           uuid.New(),
		SimProfileId: profile.Id,
		SessionId:    session.Id,
		Mode:         mode,
		NumTurns:     numTurns,
		Status:       constant.RunStatusRunning,
	}
	if err := uow.SimulatorRunRepository().Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	e.logger.Info(logger.ModuleSimulator, "Simulator run started", map[string]interface{}{
		"run_id":     run.Id.String(),
		"profile_id": profile.Id.String(),
		"mode":       mode,
	})
	return run, nil
}

func (e *Engine) failStale(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	stale, err := uow.CoachingSessionRepository().FindActiveByUser(ctx, userId)
	if err != nil || stale == nil {
		return err
	}
	now := time.Now()
	stale.Status = constant.SessionStatusFailed
	stale.CompletedAt = &now
	if err := uow.CoachingSessionRepository().Update(ctx, stale); err != nil {
		return err
	}
	run, err := uow.SimulatorRunRepository().FindBySession(ctx, stale.Id)
	if err != nil || run == nil || isTerminal(run) {
		return err
	}
	run.Status = constant.RunStatusFailed
	run.ErrorMessage = "superseded by a newer run"
	run.CompletedAt = &now
	return uow.SimulatorRunRepository().Update(ctx, run)
}

func (e *Engine) loadRun(ctx context.Context, uow unitofwork.UnitOfWork, runId uuid.UUID) (*entity.SimulatorRun, *entity.SimProfile, error) {
	run, err := uow.SimulatorRunRepository().FindById(ctx, runId)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, fmt.Errorf("%w: run %s", coach.ErrNotFound, runId)
	}
	profile, err := uow.SimProfileRepository().FindById(ctx, run.SimProfileId)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, fmt.Errorf("%w: profile %s", coach.ErrNotFound, run.SimProfileId)
	}
	return run, profile, nil
}

// Tick advances a running run by one exchange. text is the user message for
// manual runs and ignored for automated ones. Failures inside the exchange
// fail the run and come back as a done result, not an error.
func (e *Engine) Tick(ctx context.Context, runId uuid.UUID, text string) (*TickResult, error) {
	ctx = simulation(ctx)
	ctx, span := tracer.Start(ctx, "simulator.Tick")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runId.String()))

	uow := e.factory.NewUnitOfWork(ctx)
	run, profile, err := e.loadRun(ctx, uow, runId)
	if err != nil {
		return nil, err
	}
	if isTerminal(run) {
		return nil, fmt.Errorf("%w: run is %s", coach.ErrStateConflict, run.Status)
	}
	manual := run.Mode == constant.RunModeManual
	text = strings.TrimSpace(text)
	if manual && text == "" {
		return nil, fmt.Errorf("%w: manual runs need a user message", coach.ErrInvalidInput)
	}

	transcript, err := uow.MessageRepository().FindBySession(ctx, run.SessionId)
	if err != nil {
		return e.fail(ctx, run, err)
	}

	var greeting *entity.Message
	if len(transcript) == 0 && profile.ClonedFromUserId != nil {
		greeting, err = e.turns.Greet(ctx, profile.Id, run.SessionId, nil)
		if err != nil {
			return e.fail(ctx, run, err)
		}
		if !manual {
			return &TickResult{Run: run, AssistantMessage: greeting}, nil
		}
	}

	if !manual {
		text, err = e.agent.Next(ctx, profile.PersonaPrompt, transcript)
		if err != nil {
			return e.fail(ctx, run, err)
		}
	}

	res, err := e.turns.Process(ctx, profile.Id, run.SessionId, text, nil)
	if err != nil {
		return e.fail(ctx, run, err)
	}
	out := &TickResult{Run: run, Greeting: greeting, UserMessage: res.UserMessage, AssistantMessage: res.AssistantMessage}
	if manual {
		return out, nil
	}

	turnIndex := len(transcript) / 2
	numTurns := e.defaultTurns
	if run.NumTurns != nil {
		numTurns = *run.NumTurns
	}
	switch {
	case turnIndex+1 >= numTurns:
		out.Reason = constant.StopReasonMaxTurns
	case turnIndex >= constant.CardCheckMinTurnIndex && !res.AssistantMessage.IsFallback &&
		e.cards.QuickCheck(ctx, res.AssistantMessage.Content):
		out.Reason = constant.StopReasonCardWorthy
	default:
		return out, nil
	}

	if err := e.complete(ctx, run, out.Reason, nil); err != nil {
		return e.fail(ctx, run, err)
	}
	out.Done = true
	return out, nil
}

// fail marks the run failed. The session is left as it is so the partial
// transcript stays inspectable.
func (e *Engine) fail(ctx context.Context, run *entity.SimulatorRun, cause error) (*TickResult, error) {
	now := time.Now()
	run.Status = constant.RunStatusFailed
	run.StopReason = constant.StopReasonError
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &now
	if err := e.factory.NewUnitOfWork(ctx).SimulatorRunRepository().Update(ctx, run); err != nil {
		return nil, errors.Join(cause, err)
	}
	e.logger.Error(logger.ModuleSimulator, "Simulator run failed", map[string]interface{}{
		"run_id": run.Id.String(),
		"error":  cause.Error(),
	})
	e.publisher.PublishSimulatorRunFinished(ctx, run.Id, run.SimProfileId, run.Status, run.StopReason)
	return &TickResult{Run: run, Done: true, Reason: constant.StopReasonError}, nil
}

// complete finishes the run and closes its session so the slow path runs for
// simulated users too. A failed close is logged only.
func (e *Engine) complete(ctx context.Context, run *entity.SimulatorRun, reason string, eval *entity.CardEvaluation) error {
	now := time.Now()
	run.Status = constant.RunStatusCompleted
	run.StopReason = reason
	run.CompletedAt = &now
	if eval != nil {
		run.CardEvaluation = eval
	}
	if err := e.factory.NewUnitOfWork(ctx).SimulatorRunRepository().Update(ctx, run); err != nil {
		return err
	}
	if _, err := e.closer.Close(ctx, run.SessionId); err != nil {
		e.logger.Warn(logger.ModuleSimulator, "Closing simulated session failed", map[string]interface{}{
			"run_id":     run.Id.String(),
			"session_id": run.SessionId.String(),
			"error":      err.Error(),
		})
	}
	e.publisher.PublishSimulatorRunFinished(ctx, run.Id, run.SimProfileId, run.Status, run.StopReason)
	e.logger.Info(logger.ModuleSimulator, "Simulator run completed", map[string]interface{}{
		"run_id": run.Id.String(),
		"reason": reason,
	})
	return nil
}

// Stop ends a run by hand. A run with messages is evaluated first and stays
// running if the evaluation fails; an empty run is failed.
func (e *Engine) Stop(ctx context.Context, runId uuid.UUID) (*entity.SimulatorRun, error) {
	ctx = simulation(ctx)
	uow := e.factory.NewUnitOfWork(ctx)
	run, _, err := e.loadRun(ctx, uow, runId)
	if err != nil {
		return nil, err
	}
	if isTerminal(run) {
		return nil, fmt.Errorf("%w: run is %s", coach.ErrStateConflict, run.Status)
	}

	count, err := uow.MessageRepository().CountBySession(ctx, run.SessionId)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		now := time.Now()
		run.Status = constant.RunStatusFailed
		run.StopReason = constant.StopReasonManual
		run.ErrorMessage = "stopped before any messages"
		run.CompletedAt = &now
		if err := uow.SimulatorRunRepository().Update(ctx, run); err != nil {
			return nil, err
		}
		e.publisher.PublishSimulatorRunFinished(ctx, run.Id, run.SimProfileId, run.Status, run.StopReason)
		return run, nil
	}

	eval, err := e.cards.EvaluateRun(ctx, run.SessionId)
	if err != nil {
		return nil, fmt.Errorf("evaluate run: %w", err)
	}
	if err := e.complete(ctx, run, constant.StopReasonManual, eval); err != nil {
		return nil, err
	}
	return run, nil
}

// ReEvaluate replaces the stored card evaluation of a finished run.
func (e *Engine) ReEvaluate(ctx context.Context, runId uuid.UUID) (*entity.SimulatorRun, error) {
	ctx = simulation(ctx)
	uow := e.factory.NewUnitOfWork(ctx)
	run, _, err := e.loadRun(ctx, uow, runId)
	if err != nil {
		return nil, err
	}
	if run.Status != constant.RunStatusCompleted {
		return nil, fmt.Errorf("%w: only completed runs can be evaluated", coach.ErrStateConflict)
	}
	eval, err := e.cards.EvaluateRun(ctx, run.SessionId)
	if err != nil {
		return nil, fmt.Errorf("evaluate run: %w", err)
	}
	run.CardEvaluation = eval
	if err := uow.SimulatorRunRepository().Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// SuggestMessage drafts a user message for a manual run without sending it.
func (e *Engine) SuggestMessage(ctx context.Context, runId uuid.UUID) (string, error) {
	ctx = simulation(ctx)
	uow := e.factory.NewUnitOfWork(ctx)
	run, profile, err := e.loadRun(ctx, uow, runId)
	if err != nil {
		return "", err
	}
	if isTerminal(run) {
		return "", fmt.Errorf("%w: run is %s", coach.ErrStateConflict, run.Status)
	}
	transcript, err := uow.MessageRepository().FindBySession(ctx, run.SessionId)
	if err != nil {
		return "", err
	}
	return e.agent.Next(ctx, profile.PersonaPrompt, transcript)
}

func (e *Engine) GetRun(ctx context.Context, runId uuid.UUID) (*entity.SimulatorRun, []*entity.Message, error) {
	ctx = simulation(ctx)
	uow := e.factory.NewUnitOfWork(ctx)
	run, _, err := e.loadRun(ctx, uow, runId)
	if err != nil {
		return nil, nil, err
	}
	messages, err := uow.MessageRepository().FindBySession(ctx, run.SessionId)
	if err != nil {
		return nil, nil, err
	}
	return run, messages, nil
}

func (e *Engine) ListRuns(ctx context.Context, profileId uuid.UUID) ([]*entity.SimulatorRun, error) {
	return e.factory.NewUnitOfWork(simulation(ctx)).SimulatorRunRepository().FindByProfile(ctx, profileId)
}
