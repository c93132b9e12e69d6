package service

import (
	"context"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"
	"money-coach-be/pkg/coach/backfill"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillService(t *testing.T) {
	ctx := context.Background()
	watcher := uuid.New()

	t.Run("replay reports progress and the final understanding", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		start := time.Now().Add(-72 * time.Hour)
		f.seedSession(t, userId, constant.SessionStatusCompleted, start, 0, time.Minute)
		f.seedSession(t, userId, constant.SessionStatusCompleted, start.Add(24*time.Hour), 0, time.Minute)

		res, err := f.backfill.Replay(ctx, watcher, userId)

		require.NoError(t, err)
		assert.Equal(t, 2, res.SessionsProcessed)
		assert.Zero(t, res.Failed)
		require.NotNil(t, res.Understanding)
		assert.Equal(t, "Spends after stressful days", res.Understanding.Narrative)

		var sessionFrames int
		for _, fr := range f.sender.ofType(EventBackfillProgress) {
			assert.Equal(t, watcher, fr.userId)
			if fr.data.(dto.ProgressFrame).Stage == backfill.StageSession {
				sessionFrames++
			}
		}
		assert.Equal(t, 2, sessionFrames)
		assert.Len(t, f.sender.ofType(EventBackfillDone), 1)
	})

	t.Run("split regroups a long session", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		f.seedSession(t, userId, constant.SessionStatusCompleted, time.Now().Add(-72*time.Hour), 0, time.Minute, 20*time.Hour, 20*time.Hour+time.Minute)

		res, err := f.backfill.Split(ctx, uuid.Nil, userId)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Groups)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 1, res.Emptied)
		assert.Empty(t, f.sender.ofType(EventSplitDone))
	})
}
