package service

import (
	"context"
	"testing"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"
	"money-coach-be/pkg/coach"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorService(t *testing.T) {
	ctx := context.Background()
	watcher := uuid.New()
	turns := 3

	t.Run("drive runs an automated run to max turns and streams ticks", func(t *testing.T) {
		f := newFixture(t)
		profile, err := f.simulator.CreateProfile(ctx, &dto.CreateSimProfileRequest{Name: "Paycheck Pam", PersonaPrompt: "You spend your paycheck in a day."})
		require.NoError(t, err)
		run, err := f.simulator.StartRun(ctx, &dto.StartRunRequest{ProfileId: profile.Id, Mode: constant.RunModeAutomated, NumTurns: &turns})
		require.NoError(t, err)

		done, err := f.simulator.Drive(ctx, watcher, run.Id)

		require.NoError(t, err)
		assert.Equal(t, constant.RunStatusCompleted, done.Status)
		assert.Equal(t, constant.StopReasonMaxTurns, done.StopReason)
		assert.Len(t, f.sender.ofType(EventSimulatorTick), turns)

		detail, err := f.simulator.GetRun(ctx, run.Id)
		require.NoError(t, err)
		assert.Len(t, detail.Messages, 2*turns)

		runs, err := f.simulator.ListRuns(ctx, profile.Id)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("manual runs cannot be driven", func(t *testing.T) {
		f := newFixture(t)
		profile, err := f.simulator.CreateProfile(ctx, &dto.CreateSimProfileRequest{Name: "Manual Max", PersonaPrompt: "p"})
		require.NoError(t, err)
		run, err := f.simulator.StartRun(ctx, &dto.StartRunRequest{ProfileId: profile.Id, Mode: constant.RunModeManual})
		require.NoError(t, err)

		_, err = f.simulator.Drive(ctx, watcher, run.Id)
		assert.ErrorIs(t, err, coach.ErrInvalidInput)

		draft, err := f.simulator.SuggestMessage(ctx, run.Id)
		require.NoError(t, err)
		assert.Equal(t, "I spent my whole paycheck again.", draft.Message)

		tick, err := f.simulator.Tick(ctx, watcher, run.Id, &dto.TickRequest{Message: draft.Message})
		require.NoError(t, err)
		assert.False(t, tick.Done)
		require.NotNil(t, tick.UserMessage)
		assert.Equal(t, draft.Message, tick.UserMessage.Content)

		stopped, err := f.simulator.StopRun(ctx, run.Id)
		require.NoError(t, err)
		assert.Equal(t, constant.RunStatusCompleted, stopped.Status)
		require.NotNil(t, stopped.CardEvaluation)
		assert.Equal(t, 1, stopped.CardEvaluation.CardWorthyCount)
	})
}
