package service

import (
	"context"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/pkg/realm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now()

	idle := f.seedSession(t, uuid.New(), constant.SessionStatusActive, now.Add(-30*time.Hour), 0, time.Hour)
	// Opened long ago but still talking.
	busy := f.seedSession(t, uuid.New(), constant.SessionStatusActive, now.Add(-30*time.Hour), 0, 29*time.Hour)
	fresh := f.seedSession(t, uuid.New(), constant.SessionStatusActive, now.Add(-time.Hour), 0)
	abandoned := f.seedSession(t, uuid.New(), constant.SessionStatusActive, now.Add(-13*time.Hour))

	closed, err := f.sweeper.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	assert.Equal(t, constant.SessionStatusCompleted, f.session(t, idle.Id).Status)
	assert.Equal(t, constant.SessionStatusCompleted, f.session(t, abandoned.Id).Status)
	assert.Equal(t, constant.SessionStatusActive, f.session(t, busy.Id).Status)
	assert.Equal(t, constant.SessionStatusActive, f.session(t, fresh.Id).Status)
	assert.Equal(t, 2, f.queue.count())

	again, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestSweep_IgnoresSimulationRealm(t *testing.T) {
	f := newFixture(t)
	simCtx := realm.WithRealm(context.Background(), realm.Simulation)
	uow := f.factory.NewUnitOfWork(simCtx)
	sim := f.seedSession(t, uuid.New(), constant.SessionStatusActive, time.Now().Add(-30*time.Hour), 0)
	// Same shape, stored in the simulation realm.
	simCopy := *sim
	simCopy.Id = uuid.New()
	require.NoError(t, uow.CoachingSessionRepository().Create(simCtx, &simCopy))

	closed, err := f.sweeper.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	got, err := uow.CoachingSessionRepository().FindById(simCtx, simCopy.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusActive, got.Status)
}

func TestConsumer_RunsCloseTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userId := uuid.New()
	s := f.seedSession(t, userId, constant.SessionStatusActive, time.Now().Add(-time.Hour), 0, time.Minute)
	_, err := f.closer.Close(ctx, s.Id)
	require.NoError(t, err)
	require.Equal(t, 1, f.queue.count())

	require.NoError(t, f.consumer.Consume(ctx))

	u, err := f.coach.GetUnderstanding(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, "Spends after stressful days", u.Narrative)
	sets, err := f.coach.GetSuggestions(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, sets.GeneratedAfterSessionId)
	assert.Equal(t, s.Id, *sets.GeneratedAfterSessionId)
}
