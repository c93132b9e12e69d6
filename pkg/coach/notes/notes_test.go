package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"
	"money-coach-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transcript = []*entity.Message{
	{Role: constant.MessageRoleUser, Content: "I overspent on concerts again"},
	{Role: constant.MessageRoleAssistant, Content: "What did the concert mean to you?"},
}

func TestWriter_Write(t *testing.T) {
	session := &entity.CoachingSession{Hypothesis: "Spending buys belonging"}

	t.Run("returns parsed notes", func(t *testing.T) {
		provider := llmtest.New().On(prompt.TaskSessionNotes, "```json\n{\"headline\":\"Concerts and belonging\",\"narrative\":\"n\",\"key_moments\":[\"named it\"]}\n```")

		got, err := NewWriter(provider).Write(context.Background(), session, transcript, nil)

		require.NoError(t, err)
		assert.Equal(t, "Concerts and belonging", got.Headline)
		assert.Equal(t, []string{"named it"}, got.KeyMoments)
		assert.Contains(t, provider.Calls(prompt.TaskSessionNotes)[0].Prompt, "Spending buys belonging")
	})

	t.Run("missing headline", func(t *testing.T) {
		provider := llmtest.New().On(prompt.TaskSessionNotes, `{"narrative":"n"}`)

		_, err := NewWriter(provider).Write(context.Background(), session, transcript, nil)

		assert.ErrorIs(t, err, llm.ErrParse)
	})

	t.Run("provider error", func(t *testing.T) {
		provider := llmtest.New().Fail(prompt.TaskSessionNotes, errors.New("timeout"))

		_, err := NewWriter(provider).Write(context.Background(), session, transcript, nil)

		assert.Error(t, err)
	})
}

func TestFallback(t *testing.T) {
	session := &entity.CoachingSession{CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}

	t.Run("uses date and opening message", func(t *testing.T) {
		got := Fallback(session, transcript)

		assert.Equal(t, "Session on Mar 4, 2026: I overspent on concerts again", got.Headline)
		assert.Equal(t, []string{"I overspent on concerts again"}, got.KeyMoments)
	})

	t.Run("long opening is truncated", func(t *testing.T) {
		got := Fallback(session, []*entity.Message{{Role: constant.MessageRoleUser, Content: strings.Repeat("a", 200)}})

		assert.True(t, strings.HasSuffix(got.Headline, "..."))
		assert.Less(t, len(got.Headline), 100)
	})

	t.Run("no user messages", func(t *testing.T) {
		got := Fallback(session, nil)

		assert.Equal(t, "Session on Mar 4, 2026", got.Headline)
	})
}
