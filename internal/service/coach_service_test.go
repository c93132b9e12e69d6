package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/prompt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChat(t *testing.T) {
	ctx := context.Background()

	t.Run("first message opens a session and streams the reply", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()

		res, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "I overspent again"})

		require.NoError(t, err)
		assert.True(t, res.IsNewSession)
		assert.Nil(t, res.HoursSinceLastMessage)
		assert.Nil(t, res.ClosedSessionId)
		assert.Equal(t, "What happened right before?", res.AssistantMessage.Content)

		var streamed strings.Builder
		for _, fr := range f.sender.ofType(EventChatDelta) {
			assert.Equal(t, userId, fr.userId)
			streamed.WriteString(fr.data.(map[string]interface{})["delta"].(string))
		}
		assert.Equal(t, "What happened right before?", streamed.String())
		assert.Len(t, f.sender.ofType(EventChatDone), 1)
	})

	t.Run("message within the gap stays in the session", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		first, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "hello"})
		require.NoError(t, err)

		second, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "still here"})

		require.NoError(t, err)
		assert.False(t, second.IsNewSession)
		assert.Equal(t, first.SessionId, second.SessionId)
		require.NotNil(t, second.HoursSinceLastMessage)
		assert.Less(t, *second.HoursSinceLastMessage, 1.0)
		assert.Len(t, f.provider.Calls(prompt.TaskBriefing), 1)
	})

	t.Run("crossing the gap closes the previous session", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		old := f.seedSession(t, userId, constant.SessionStatusActive, time.Now().Add(-14*time.Hour), 0, time.Minute)

		res, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "new week"})

		require.NoError(t, err)
		assert.True(t, res.IsNewSession)
		assert.NotEqual(t, old.Id, res.SessionId)
		require.NotNil(t, res.ClosedSessionId)
		assert.Equal(t, old.Id, *res.ClosedSessionId)
		require.NotNil(t, res.HoursSinceLastMessage)
		assert.Greater(t, *res.HoursSinceLastMessage, 12.0)

		closed := f.session(t, old.Id)
		assert.Equal(t, constant.SessionStatusCompleted, closed.Status)
		assert.Equal(t, "Payday splurge", closed.Title)
		assert.Equal(t, 1, f.queue.count())
	})

	t.Run("an empty active session is reused after the gap", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		f.seedSession(t, userId, constant.SessionStatusCompleted, time.Now().Add(-40*time.Hour), 0, time.Minute)
		empty := f.seedSession(t, userId, constant.SessionStatusActive, time.Now().Add(-20*time.Hour))

		res, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "back again"})

		require.NoError(t, err)
		assert.Equal(t, empty.Id, res.SessionId)
		assert.False(t, res.IsNewSession)
		assert.Equal(t, 0, f.queue.count())
	})

	t.Run("first ever session seeds from onboarding", func(t *testing.T) {
		f := newFixture(t)
		userId := uuid.New()
		require.NoError(t, f.coach.SaveOnboarding(ctx, userId, &dto.SaveOnboardingRequest{
			Answers: map[string]string{"biggest_worry": "rent"},
			Goals:   []string{"Build an emergency fund", " "},
		}))

		_, err := f.coach.SendChat(ctx, userId, &dto.SendChatRequest{Message: "hi"})
		require.NoError(t, err)

		u, err := f.coach.GetUnderstanding(ctx, userId)
		require.NoError(t, err)
		assert.Equal(t, "Seeded from onboarding", u.Narrative)
		areas, err := f.coach.GetFocusAreas(ctx, userId)
		require.NoError(t, err)
		require.Len(t, areas, 1)
		assert.Equal(t, "Build an emergency fund", areas[0].Text)
		assert.Equal(t, constant.FocusAreaSourceOnboarding, areas[0].Source)
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coach.SendChat(ctx, uuid.New(), &dto.SendChatRequest{Message: "   "})
		assert.ErrorIs(t, err, coach.ErrInvalidInput)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userId := uuid.New()
	older := f.seedSession(t, userId, constant.SessionStatusCompleted, time.Now().Add(-48*time.Hour), 0)
	active := f.seedSession(t, userId, constant.SessionStatusActive, time.Now().Add(-time.Hour), 0, time.Minute)

	t.Run("list is newest first", func(t *testing.T) {
		list, err := f.coach.ListSessions(ctx, userId)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, active.Id, list[0].Id)
		assert.Equal(t, older.Id, list[1].Id)
	})

	t.Run("detail includes the transcript", func(t *testing.T) {
		detail, err := f.coach.GetSession(ctx, userId, active.Id)
		require.NoError(t, err)
		assert.Len(t, detail.Messages, 2)
	})

	t.Run("another user cannot read or close it", func(t *testing.T) {
		_, err := f.coach.GetSession(ctx, uuid.New(), active.Id)
		assert.ErrorIs(t, err, coach.ErrNotFound)
		_, err = f.coach.CloseSession(ctx, uuid.New(), active.Id)
		assert.ErrorIs(t, err, coach.ErrNotFound)
	})

	t.Run("close completes and a second close conflicts", func(t *testing.T) {
		res, err := f.coach.CloseSession(ctx, userId, active.Id)
		require.NoError(t, err)
		assert.Equal(t, constant.SessionStatusCompleted, res.Status)
		require.NotNil(t, res.Notes)
		assert.NotEmpty(t, res.Notes.Headline)

		_, err = f.coach.CloseSession(ctx, userId, active.Id)
		assert.ErrorIs(t, err, coach.ErrStateConflict)
	})
}

func TestFocusAreas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userId := uuid.New()

	created, err := f.coach.CreateFocusArea(ctx, userId, &dto.CreateFocusAreaRequest{Text: "  Stop late-night shopping "})
	require.NoError(t, err)
	assert.Equal(t, "Stop late-night shopping", created.Text)
	assert.Equal(t, constant.FocusAreaSourceUser, created.Source)

	assert.ErrorIs(t, f.coach.ArchiveFocusArea(ctx, uuid.New(), created.Id), coach.ErrNotFound)
	require.NoError(t, f.coach.ArchiveFocusArea(ctx, userId, created.Id))

	areas, err := f.coach.GetFocusAreas(ctx, userId)
	require.NoError(t, err)
	assert.Empty(t, areas)
}

func TestGetSuggestions_NoneYet(t *testing.T) {
	f := newFixture(t)
	_, err := f.coach.GetSuggestions(context.Background(), uuid.New())
	assert.ErrorIs(t, err, coach.ErrNotFound)
}
