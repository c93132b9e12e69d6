package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/memory"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach/backfill"
	"money-coach-be/pkg/coach/briefing"
	"money-coach-be/pkg/coach/cards"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/notes"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/coach/simulator"
	"money-coach-be/pkg/coach/suggestion"
	"money-coach-be/pkg/coach/turn"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/llm/llmtest"
	"money-coach-be/pkg/lock"
	"money-coach-be/pkg/taskqueue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type frame struct {
	userId    uuid.UUID
	eventType string
	data      interface{}
}

type recordingSender struct {
	mu     sync.Mutex
	frames []frame
}

func (s *recordingSender) SendEvent(userId uuid.UUID, eventType string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame{userId: userId, eventType: eventType, data: data})
}

func (s *recordingSender) ofType(eventType string) []frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []frame
	for _, f := range s.frames {
		if f.eventType == eventType {
			out = append(out, f)
		}
	}
	return out
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []taskqueue.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, task taskqueue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Run(ctx context.Context, handler taskqueue.Handler) error {
	q.mu.Lock()
	tasks := append([]taskqueue.Task(nil), q.tasks...)
	q.mu.Unlock()
	for _, task := range tasks {
		if err := handler(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func scriptedProvider() *llmtest.Provider {
	return llmtest.New().
		On(prompt.TaskBriefing, `{"hypothesis":"Spending soothes stress","leverage_point":"payday","curiosities":["rent"],"opening_direction":"Ask about the week"}`).
		On(prompt.TaskCoachTurn, "What happened right before?").
		On(prompt.TaskCoachGreeting, "Good to see you.").
		On(prompt.TaskSessionNotes, `{"headline":"Payday splurge","narrative":"n"}`).
		On(prompt.TaskEvolve, `{"narrative":"Spends after stressful days","stage_of_change":"contemplation"}`).
		On(prompt.TaskSeedNarrative, `{"narrative":"Seeded from onboarding","stage_of_change":"precontemplation"}`).
		On(prompt.TaskSeedSuggestions, `{"suggestions":[{"title":"First steps","length":"quick"}]}`).
		On(prompt.TaskSuggestions, `{"suggestions":[{"title":"Next up","length":"medium"}]}`).
		On(prompt.TaskUserAgent, "I spent my whole paycheck again.").
		On(prompt.TaskCardQuickCheck, `{"card_worthy":false}`).
		On(prompt.TaskCardClassify, `{"card_worthy":true,"category":"reframe"}`)
}

type fixture struct {
	factory   unitofwork.RepositoryFactory
	provider  *llmtest.Provider
	queue     *recordingQueue
	sender    *recordingSender
	closer    *closer.Pipeline
	coach     *coachService
	sweeper   *sweeperService
	simulator ISimulatorService
	backfill  IBackfillService
	consumer  IConsumerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	provider := scriptedProvider()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	log := logger.NewNopLogger()
	locker := lock.NewLocalLocker()
	queue := &recordingQueue{}
	sender := &recordingSender{}

	briefings := briefing.NewService(factory, provider, briefing.NewCache(time.Minute), log)
	turns := turn.NewProcessor(factory, provider, briefings, locker, log)
	evolver := understanding.NewEvolver(provider)
	seeder := understanding.NewSeeder(provider)
	suggestions := suggestion.NewGenerator(provider)
	pipeline := closer.NewPipeline(closer.Deps{
		Factory:     factory,
		Notes:       notes.NewWriter(provider),
		Evolver:     evolver,
		Suggestions: suggestions,
		Queue:       queue,
		Locker:      locker,
		Logger:      log,
	})
	engine := simulator.NewEngine(simulator.Deps{
		Factory: factory,
		Turns:   turns,
		Closer:  pipeline,
		Cards:   cards.NewEngine(factory, provider, "", log),
		Agent:   simulator.NewUserAgent(provider, ""),
		Logger:  log,
	})
	replayer := backfill.NewReplayer(backfill.Deps{
		Factory:     factory,
		Seeder:      seeder,
		Evolver:     evolver,
		Suggestions: suggestions,
		Locker:      locker,
		Logger:      log,
	})

	return &fixture{
		factory:   factory,
		provider:  provider,
		queue:     queue,
		sender:    sender,
		closer:    pipeline,
		coach:     NewCoachService(factory, turns, pipeline, seeder, locker, sender, log).(*coachService),
		sweeper:   NewSweeperService(factory, pipeline, log).(*sweeperService),
		simulator: NewSimulatorService(engine, sender, log),
		backfill:  NewBackfillService(replayer, backfill.NewSplitter(factory, locker, log), sender, log),
		consumer:  NewConsumerService(queue, pipeline, log),
	}
}

// seedSession stores a session whose messages sit at the given offsets from
// its start.
func (f *fixture) seedSession(t *testing.T, userId uuid.UUID, status string, start time.Time, offsets ...time.Duration) *entity.CoachingSession {
	t.Helper()
	ctx := context.Background()
	uow := f.factory.NewUnitOfWork(ctx)
	s := &entity.CoachingSession{Id: uuid.New(), UserId: userId, Status: status, CreatedAt: start}
	require.NoError(t, uow.CoachingSessionRepository().Create(ctx, s))
	for i, off := range offsets {
		role := constant.MessageRoleUser
		if i%2 == 1 {
			role = constant.MessageRoleAssistant
		}
		require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
			Id:        uuid.New(),
			SessionId: s.Id,
			UserId:    userId,
			Role:      role,
			Content:   "message",
			CreatedAt: start.Add(off),
		}))
	}
	return s
}

func (f *fixture) session(t *testing.T, id uuid.UUID) *entity.CoachingSession {
	t.Helper()
	ctx := context.Background()
	s, err := f.factory.NewUnitOfWork(ctx).CoachingSessionRepository().FindById(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}
