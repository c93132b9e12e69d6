package cards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/memory"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm/llmtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classifyByContent answers from keywords in the reply under evaluation.
func classifyByContent(call llmtest.Call) (string, error) {
	switch {
	case strings.Contains(call.Prompt, "REFRAME"):
		return `{"card_worthy":true,"category":"reframe"}`, nil
	case strings.Contains(call.Prompt, "PLAN"):
		return `{"card_worthy":true,"category":"plan"}`, nil
	case strings.Contains(call.Prompt, "BOGUS"):
		return `{"card_worthy":true,"category":"poem"}`, nil
	default:
		return `{"card_worthy":false,"category":""}`, nil
	}
}

func seedSession(t *testing.T, factory unitofwork.RepositoryFactory, replies ...entity.Message) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).MessageRepository()
	sessionId := uuid.New()
	for _, r := range replies {
		r := r
		r.SessionId = sessionId
		require.NoError(t, repo.Create(ctx, &r))
	}
	return sessionId
}

func coachSays(text string) entity.Message {
	return entity.Message{Role: constant.MessageRoleAssistant, Content: text}
}

func TestEvaluateRun(t *testing.T) {
	ctx := context.Background()

	t.Run("counts worthy replies by category", func(t *testing.T) {
		factory := memory.NewRepositoryFactory(memory.NewStore())
		provider := llmtest.New().OnFunc(prompt.TaskCardClassify, classifyByContent)
		engine := NewEngine(factory, provider, "", logger.NewNopLogger())
		sessionId := seedSession(t, factory,
			entity.Message{Role: constant.MessageRoleUser, Content: "REFRAME me"},
			coachSays("REFRAME: money is a tool"),
			coachSays("PLAN: automate savings"),
			coachSays("How did that feel?"),
			coachSays("BOGUS category"),
			entity.Message{Role: constant.MessageRoleAssistant, Content: constant.FallbackReply, IsFallback: true},
		)

		eval, err := engine.EvaluateRun(ctx, sessionId)

		require.NoError(t, err)
		assert.Equal(t, 4, eval.TotalMessages)
		assert.Equal(t, 2, eval.CardWorthyCount)
		assert.Equal(t, map[string]int{
			constant.CardCategoryReframe:         1,
			constant.CardCategoryTruth:           0,
			constant.CardCategoryPlan:            1,
			constant.CardCategoryPractice:        0,
			constant.CardCategoryConversationKit: 0,
		}, eval.Categories)
		assert.Len(t, provider.Calls(prompt.TaskCardClassify), 4)
		for _, c := range provider.Calls(prompt.TaskCardClassify) {
			assert.Zero(t, c.Options.Temperature)
		}
	})

	t.Run("same transcript gives the same counts", func(t *testing.T) {
		factory := memory.NewRepositoryFactory(memory.NewStore())
		engine := NewEngine(factory, llmtest.New().OnFunc(prompt.TaskCardClassify, classifyByContent), "", logger.NewNopLogger())
		sessionId := seedSession(t, factory, coachSays("REFRAME"), coachSays("PLAN"), coachSays("hm"))

		first, err := engine.EvaluateRun(ctx, sessionId)
		require.NoError(t, err)
		second, err := engine.EvaluateRun(ctx, sessionId)
		require.NoError(t, err)

		assert.Equal(t, first.CardWorthyCount, second.CardWorthyCount)
		assert.Equal(t, first.Categories, second.Categories)
	})

	t.Run("one failure fails the evaluation", func(t *testing.T) {
		factory := memory.NewRepositoryFactory(memory.NewStore())
		provider := llmtest.New().OnFunc(prompt.TaskCardClassify, func(call llmtest.Call) (string, error) {
			if strings.Contains(call.Prompt, "PLAN") {
				return "", errors.New("timeout")
			}
			return classifyByContent(call)
		})
		engine := NewEngine(factory, provider, "", logger.NewNopLogger())
		sessionId := seedSession(t, factory, coachSays("REFRAME"), coachSays("PLAN"))

		eval, err := engine.EvaluateRun(ctx, sessionId)

		assert.Error(t, err)
		assert.Nil(t, eval)
	})

	t.Run("nothing to evaluate scores zero", func(t *testing.T) {
		factory := memory.NewRepositoryFactory(memory.NewStore())
		provider := llmtest.New()
		engine := NewEngine(factory, provider, "", logger.NewNopLogger())
		sessions := map[string]uuid.UUID{
			"empty transcript": uuid.New(),
			"only fallbacks": seedSession(t, factory,
				entity.Message{Role: constant.MessageRoleUser, Content: "hi"},
				entity.Message{Role: constant.MessageRoleAssistant, Content: constant.FallbackReply, IsFallback: true},
			),
		}

		for name, sessionId := range sessions {
			t.Run(name, func(t *testing.T) {
				eval, err := engine.EvaluateRun(ctx, sessionId)

				require.NoError(t, err)
				assert.Zero(t, eval.TotalMessages)
				assert.Zero(t, eval.CardWorthyCount)
				assert.Len(t, eval.Categories, len(constant.CardCategories))
				assert.False(t, eval.EvaluatedAt.IsZero())
			})
		}
		assert.Empty(t, provider.Calls(prompt.TaskCardClassify))
	})
}

func TestQuickCheck(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore())

	tests := []struct {
		name     string
		provider *llmtest.Provider
		want     bool
	}{
		{name: "worthy", provider: llmtest.New().On(prompt.TaskCardQuickCheck, `{"card_worthy":true}`), want: true},
		{name: "not worthy", provider: llmtest.New().On(prompt.TaskCardQuickCheck, `{"card_worthy":false}`), want: false},
		{name: "garbage", provider: llmtest.New().On(prompt.TaskCardQuickCheck, "yes!"), want: false},
		{name: "error", provider: llmtest.New().Fail(prompt.TaskCardQuickCheck, errors.New("down")), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(factory, tt.provider, "fast-model", logger.NewNopLogger())

			assert.Equal(t, tt.want, engine.QuickCheck(ctx, "Try naming the feeling before you buy."))
			assert.Equal(t, "fast-model", tt.provider.Calls(prompt.TaskCardQuickCheck)[0].Options.Model)
		})
	}
}
