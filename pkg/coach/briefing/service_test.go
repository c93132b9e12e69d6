package briefing

import (
	"context"
	"errors"
	"testing"
	"time"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/memory"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm/llmtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefingJSON = `{"hypothesis":"Spending soothes stress","leverage_point":"Friday nights","curiosities":["What happens on payday?"],"opening_direction":"Ask about the week","tension_type":"avoidance","secondary_tension_type":"scarcity"}`

func newService(provider *llmtest.Provider) (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(memory.NewRepositoryFactory(store), provider, NewCache(time.Minute), logger.NewNopLogger()), store
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()

	t.Run("computes when none exists", func(t *testing.T) {
		svc, _ := newService(llmtest.New().On(prompt.TaskBriefing, briefingJSON))
		userId := uuid.New()

		b, err := svc.Ensure(ctx, userId, false)

		require.NoError(t, err)
		assert.Equal(t, "Spending soothes stress", b.Hypothesis)
		assert.Equal(t, []string{"What happens on payday?"}, b.Curiosities)
	})

	t.Run("returns prior without refresh", func(t *testing.T) {
		provider := llmtest.New().On(prompt.TaskBriefing, briefingJSON)
		svc, _ := newService(provider)
		userId := uuid.New()

		first, err := svc.Ensure(ctx, userId, false)
		require.NoError(t, err)
		second, err := svc.Ensure(ctx, userId, false)
		require.NoError(t, err)

		assert.Equal(t, first.Id, second.Id)
		assert.Len(t, provider.Calls(prompt.TaskBriefing), 1)
	})

	t.Run("refresh writes a new immutable row", func(t *testing.T) {
		svc, _ := newService(llmtest.New().On(prompt.TaskBriefing, briefingJSON))
		userId := uuid.New()

		first, err := svc.Ensure(ctx, userId, false)
		require.NoError(t, err)
		second, err := svc.Ensure(ctx, userId, true)
		require.NoError(t, err)

		assert.NotEqual(t, first.Id, second.Id)
	})

	t.Run("falls back to prior when recompute fails", func(t *testing.T) {
		provider := llmtest.New().On(prompt.TaskBriefing, briefingJSON)
		svc, _ := newService(provider)
		userId := uuid.New()
		first, err := svc.Ensure(ctx, userId, false)
		require.NoError(t, err)

		provider.Fail(prompt.TaskBriefing, errors.New("timeout"))
		got, err := svc.Ensure(ctx, userId, true)

		require.NoError(t, err)
		assert.Equal(t, first.Id, got.Id)
	})

	t.Run("no prior and failure is ErrNoBriefing", func(t *testing.T) {
		svc, _ := newService(llmtest.New().On(prompt.TaskBriefing, "not json at all"))

		_, err := svc.Ensure(ctx, uuid.New(), false)

		assert.ErrorIs(t, err, coach.ErrNoBriefing)
	})
}

func TestEnsure_FillsTensionOnFirstRun(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(llmtest.New().On(prompt.TaskBriefing, briefingJSON))
	userId := uuid.New()
	repo := memory.NewRepositoryFactory(store).NewUnitOfWork(ctx).UnderstandingRepository()
	require.NoError(t, repo.Upsert(ctx, &entity.Understanding{UserId: userId, Narrative: "New to budgeting"}))

	_, err := svc.Ensure(ctx, userId, false)
	require.NoError(t, err)

	u, err := repo.FindByUser(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, "avoidance", u.TensionType)
	assert.Equal(t, "scarcity", u.SecondaryTensionType)
	assert.Equal(t, "New to budgeting", u.Narrative)
}

func TestEnsure_RealmsAreIsolated(t *testing.T) {
	svc, _ := newService(llmtest.New().On(prompt.TaskBriefing, briefingJSON))
	userId := uuid.New()

	_, err := svc.Ensure(context.Background(), userId, false)
	require.NoError(t, err)

	simCtx := realm.WithRealm(context.Background(), realm.Simulation)
	latest, err := svc.Latest(simCtx, userId)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
