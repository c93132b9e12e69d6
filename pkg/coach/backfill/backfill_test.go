package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/memory"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach/closer"
	"money-coach-be/pkg/coach/notes"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/coach/suggestion"
	"money-coach-be/pkg/coach/understanding"
	"money-coach-be/pkg/llm/llmtest"
	"money-coach-be/pkg/lock"
	"money-coach-be/pkg/taskqueue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	narrativeLine = regexp.MustCompile(`(?m)^Narrative: (.*)$`)
	firstUserLine = regexp.MustCompile(`(?m)^User: (.*)$`)
)

// evolveChain appends the session's first user line to the running
// narrative, so the result depends on evolution order.
func evolveChain(call llmtest.Call) (string, error) {
	prev := "seed?"
	if m := narrativeLine.FindStringSubmatch(call.Prompt); m != nil {
		prev = m[1]
	}
	first := firstUserLine.FindStringSubmatch(call.Prompt)
	if first == nil {
		return "", errors.New("no transcript")
	}
	if strings.Contains(first[1], "poison") {
		return "", errors.New("model refused")
	}
	out, _ := json.Marshal(map[string]interface{}{
		"narrative": prev + ">" + first[1],
		"focus_area_reflections": []map[string]string{
			{"focus_area": "Build an emergency fund", "reflection": "touched on " + first[1]},
		},
	})
	return string(out), nil
}

func newProvider() *llmtest.Provider {
	return llmtest.New().
		On(prompt.TaskSeedNarrative, `{"narrative":"S0","stage_of_change":"contemplation"}`).
		On(prompt.TaskSeedSuggestions, `{"suggestions":[{"title":"First steps","length":"quick"}]}`).
		On(prompt.TaskSessionNotes, `{"headline":"h"}`).
		On(prompt.TaskSuggestions, `{"suggestions":[{"title":"Next up","length":"medium"}]}`).
		OnFunc(prompt.TaskEvolve, evolveChain)
}

type fixture struct {
	factory  unitofwork.RepositoryFactory
	provider *llmtest.Provider
	replayer *Replayer
	userId   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	provider := newProvider()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	f := &fixture{
		factory:  factory,
		provider: provider,
		userId:   uuid.New(),
		replayer: NewReplayer(Deps{
			Factory:     factory,
			Seeder:      understanding.NewSeeder(provider),
			Evolver:     understanding.NewEvolver(provider),
			Suggestions: suggestion.NewGenerator(provider),
			Locker:      lock.NewLocalLocker(),
			Logger:      logger.NewNopLogger(),
		}),
	}
	ctx := context.Background()
	require.NoError(t, factory.NewUnitOfWork(ctx).OnboardingRepository().Upsert(ctx, &entity.OnboardingProfile{
		Id:      uuid.New(),
		UserId:  f.userId,
		Answers: map[string]string{"biggest worry": "no savings"},
		Goals:   []string{"Build an emergency fund"},
	}))
	return f
}

// addSession stores an active session with a two-message transcript.
func (f *fixture) addSession(t *testing.T, opening string, at time.Time) *entity.CoachingSession {
	t.Helper()
	ctx := context.Background()
	uow := f.factory.NewUnitOfWork(ctx)
	s := &entity.CoachingSession{Id: uuid.New(), UserId: f.userId, Status: constant.SessionStatusActive, CreatedAt: at}
	require.NoError(t, uow.CoachingSessionRepository().Create(ctx, s))
	for i, msg := range []entity.Message{
		{Role: constant.MessageRoleUser, Content: opening},
		{Role: constant.MessageRoleAssistant, Content: "Say more."},
	} {
		msg := msg
		msg.SessionId = s.Id
		msg.UserId = f.userId
		msg.CreatedAt = at.Add(time.Duration(i) * time.Minute)
		require.NoError(t, uow.MessageRepository().Create(ctx, &msg))
	}
	return s
}

func (f *fixture) complete(t *testing.T, s *entity.CoachingSession) {
	t.Helper()
	ctx := context.Background()
	s.Status = constant.SessionStatusCompleted
	require.NoError(t, f.factory.NewUnitOfWork(ctx).CoachingSessionRepository().Update(ctx, s))
}

type collectQueue struct{ tasks []taskqueue.Task }

func (q *collectQueue) Enqueue(ctx context.Context, task taskqueue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func TestReplay_MatchesIncrementalCloses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	seeded, err := understanding.NewSeeder(f.provider).Seed(ctx, f.userId, &entity.OnboardingProfile{})
	require.NoError(t, err)
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.UnderstandingRepository().Upsert(ctx, seeded))
	require.NoError(t, uow.FocusAreaRepository().Create(ctx, &entity.FocusArea{
		Id: uuid.New(), UserId: f.userId, Text: "Build an emergency fund", Source: constant.FocusAreaSourceOnboarding,
	}))

	queue := &collectQueue{}
	pipeline := closer.NewPipeline(closer.Deps{
		Factory:     f.factory,
		Notes:       notes.NewWriter(f.provider),
		Evolver:     understanding.NewEvolver(f.provider),
		Suggestions: suggestion.NewGenerator(f.provider),
		Queue:       queue,
		Locker:      lock.NewLocalLocker(),
		Logger:      logger.NewNopLogger(),
	})
	for i, opening := range []string{"payday splurge", "rent is late", "opened savings"} {
		s := f.addSession(t, opening, base.Add(time.Duration(i)*48*time.Hour))
		_, err := pipeline.Close(ctx, s.Id)
		require.NoError(t, err)
		require.NoError(t, pipeline.RunBackground(ctx, queue.tasks[i]))
	}
	incremental, err := uow.UnderstandingRepository().FindByUser(ctx, f.userId)
	require.NoError(t, err)
	require.Equal(t, "S0>payday splurge>rent is late>opened savings", incremental.Narrative)
	areas, err := uow.FocusAreaRepository().FindActiveByUser(ctx, f.userId)
	require.NoError(t, err)
	incrementalReflections := len(areas[0].Reflections)

	res, err := f.replayer.Replay(ctx, f.userId, nil)

	require.NoError(t, err)
	assert.Equal(t, incremental.Narrative, res.FinalUnderstanding.Narrative)
	assert.Equal(t, 3, res.SessionsProcessed)
	stored, err := uow.UnderstandingRepository().FindByUser(ctx, f.userId)
	require.NoError(t, err)
	assert.Equal(t, incremental.Narrative, stored.Narrative)
	areas, err = uow.FocusAreaRepository().FindActiveByUser(ctx, f.userId)
	require.NoError(t, err)
	assert.Len(t, areas[0].Reflections, incrementalReflections)
}

func TestReplay_OldestFirstAndFailureIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	late := f.addSession(t, "third", base.Add(96*time.Hour))
	early := f.addSession(t, "first", base)
	bad := f.addSession(t, "poison pill", base.Add(48*time.Hour))
	for _, s := range []*entity.CoachingSession{late, early, bad} {
		f.complete(t, s)
	}
	var progress []Progress

	res, err := f.replayer.Replay(ctx, f.userId, func(p Progress) { progress = append(progress, p) })

	require.NoError(t, err)
	assert.Equal(t, "S0>first>third", res.FinalUnderstanding.Narrative)
	assert.Equal(t, 2, res.SessionsProcessed)
	assert.Equal(t, 1, res.Failed)

	var sessionSteps []Progress
	for _, p := range progress {
		if p.Stage == StageSession {
			sessionSteps = append(sessionSteps, p)
		}
	}
	require.Len(t, sessionSteps, 3)
	assert.Equal(t, early.Id, sessionSteps[0].SessionId)
	assert.Error(t, sessionSteps[1].Err)
	assert.Equal(t, late.Id, sessionSteps[2].SessionId)
	assert.Equal(t, StageCompleted, progress[len(progress)-1].Stage)
}

func TestReplay_FocusAreasAndTension(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.UnderstandingRepository().Upsert(ctx, &entity.Understanding{
		Id: uuid.New(), UserId: f.userId, Narrative: "stale", TensionType: "avoidance", SecondaryTensionType: "scarcity",
	}))
	s := f.addSession(t, "first", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	f.complete(t, s)

	t.Run("first replay creates focus areas from goals", func(t *testing.T) {
		res, err := f.replayer.Replay(ctx, f.userId, nil)
		require.NoError(t, err)

		assert.Equal(t, "avoidance", res.FinalUnderstanding.TensionType)
		assert.Equal(t, "scarcity", res.FinalUnderstanding.SecondaryTensionType)
		areas, err := uow.FocusAreaRepository().FindAllByUser(ctx, f.userId)
		require.NoError(t, err)
		require.Len(t, areas, 1)
		assert.Equal(t, "Build an emergency fund", areas[0].Text)
	})

	t.Run("second replay resets reflections instead of duplicating areas", func(t *testing.T) {
		_, err := f.replayer.Replay(ctx, f.userId, nil)
		require.NoError(t, err)

		areas, err := uow.FocusAreaRepository().FindActiveByUser(ctx, f.userId)
		require.NoError(t, err)
		require.Len(t, areas, 1)
		assert.Len(t, areas[0].Reflections, 1)
	})
}

func TestReplay_SeedFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.Fail(prompt.TaskSeedNarrative, errors.New("down"))
	s := f.addSession(t, "first", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	f.complete(t, s)

	res, err := f.replayer.Replay(ctx, f.userId, nil)

	require.NoError(t, err)
	assert.Equal(t, "seed?>first", res.FinalUnderstanding.Narrative)
}

func TestReplay_NoSessionsStoresSeeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.replayer.Replay(ctx, f.userId, nil)

	require.NoError(t, err)
	assert.Equal(t, "S0", res.FinalUnderstanding.Narrative)
	set, err := f.factory.NewUnitOfWork(ctx).SuggestionSetRepository().FindLatestByUser(ctx, f.userId)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, []string{"First steps"}, set.Titles())
}

func TestGroup(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	at := func(h float64) *entity.Message {
		return &entity.Message{CreatedAt: base.Add(time.Duration(h * float64(time.Hour)))}
	}

	groups := Group([]*entity.Message{at(0), at(1), at(13.5), at(14), at(26), at(38.5)})

	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 3)
	assert.Len(t, groups[2], 1)
	assert.Empty(t, Group(nil))
}

func TestSplit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	splitter := NewSplitter(f.factory, lock.NewLocalLocker(), logger.NewNopLogger())
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	lumped := f.addSession(t, "monday", base)
	f.complete(t, lumped)
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
		SessionId: lumped.Id, UserId: f.userId, Role: constant.MessageRoleUser, Content: "wednesday", CreatedAt: base.Add(48 * time.Hour),
	}))
	clean := f.addSession(t, "friday", base.Add(96*time.Hour))
	f.complete(t, clean)

	res, err := splitter.Split(ctx, f.userId, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Groups)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Emptied)

	sessions, err := uow.CoachingSessionRepository().FindAllByUser(ctx, f.userId)
	require.NoError(t, err)
	var completed []*entity.CoachingSession
	for _, s := range sessions {
		if s.Status == constant.SessionStatusCompleted {
			completed = append(completed, s)
		}
	}
	require.Len(t, completed, 3)
	assert.Contains(t, completed[1].Title, "wednesday")
	assert.Equal(t, clean.Id, completed[2].Id)

	again, err := splitter.Split(ctx, f.userId, nil)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
}

func TestSplit_PartialSessions(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		tailContent string
		wantCreated int
		wantEmptied int
	}{
		{name: "session sharing a group with the active one keeps fresh notes", tailContent: "wednesday rent", wantCreated: 1, wantEmptied: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			splitter := NewSplitter(f.factory, lock.NewLocalLocker(), logger.NewNopLogger())
			uow := f.factory.NewUnitOfWork(ctx)

			lumped := f.addSession(t, "monday", base)
			require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
				SessionId: lumped.Id, UserId: f.userId, Role: constant.MessageRoleUser, Content: tt.tailContent, CreatedAt: base.Add(48 * time.Hour),
			}))
			f.complete(t, lumped)
			f.addSession(t, "thursday", base.Add(49*time.Hour))

			res, err := splitter.Split(ctx, f.userId, nil)

			require.NoError(t, err)
			assert.Equal(t, 2, res.Groups)
			assert.Equal(t, tt.wantCreated, res.Created)
			assert.Equal(t, tt.wantEmptied, res.Emptied)

			kept, err := uow.CoachingSessionRepository().FindById(ctx, lumped.Id)
			require.NoError(t, err)
			assert.Equal(t, constant.SessionStatusCompleted, kept.Status)
			assert.Contains(t, kept.Title, tt.tailContent)
			assert.NotContains(t, kept.Title, "monday")
			remaining, err := uow.MessageRepository().FindBySession(ctx, lumped.Id)
			require.NoError(t, err)
			assert.Len(t, remaining, 1)
		})
	}
}
