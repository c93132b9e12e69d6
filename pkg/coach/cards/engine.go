// Package cards judges whether coach replies carry insight worth keeping as
// a rewire card.
package cards

import (
	"context"
	"fmt"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const classifyConcurrency = 4

type quickCheckOutput struct {
	CardWorthy bool `json:"card_worthy"`
}

// Classification is the verdict for one reply. Category is empty unless the
// reply is card-worthy.
type Classification struct {
	CardWorthy bool   `json:"card_worthy"`
	Category   string `json:"category"`
}

type Engine struct {
	factory   unitofwork.RepositoryFactory
	provider  llm.LLMProvider
	fastModel string
	logger    logger.ILogger
}

// NewEngine builds an engine. fastModel, when set, is used for the per-turn
// quick check.
func NewEngine(factory unitofwork.RepositoryFactory, provider llm.LLMProvider, fastModel string, logger logger.ILogger) *Engine {
	return &Engine{
		factory:   factory,
		provider:  provider,
		fastModel: fastModel,
		logger:    logger,
	}
}

// The verdict is a one-field JSON object.
const quickCheckMaxTokens = 64

// QuickCheck is a cheap yes/no used to stop simulations early. Any failure
// counts as no.
func (e *Engine) QuickCheck(ctx context.Context, reply string) bool {
	var out quickCheckOutput
	err := llm.GenerateStructured(ctx, e.provider, prompt.CardQuickCheck(reply), &out,
		llm.WithTemperature(0), llm.WithModel(e.fastModel), llm.WithMaxTokens(quickCheckMaxTokens))
	if err != nil {
		e.logger.Warn(logger.ModuleCards, "Quick card check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return out.CardWorthy
}

// Classify asks for worthiness and a category. A worthy verdict with a
// category outside the fixed set is treated as not worthy.
func (e *Engine) Classify(ctx context.Context, reply string) (Classification, error) {
	var out Classification
	if err := llm.GenerateStructured(ctx, e.provider, prompt.CardClassify(reply), &out, llm.WithTemperature(0)); err != nil {
		return Classification{}, err
	}
	if !out.CardWorthy || !constant.IsCardCategory(out.Category) {
		return Classification{}, nil
	}
	return out, nil
}

// EvaluateRun classifies every assistant reply of a session. Fallback replies
// are skipped, and a session without any other reply scores zero. One failed classification fails the whole evaluation so that
// partial counts are never stored.
func (e *Engine) EvaluateRun(ctx context.Context, sessionId uuid.UUID) (*entity.CardEvaluation, error) {
	messages, err := e.factory.NewUnitOfWork(ctx).MessageRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	var replies []string
	for _, m := range messages {
		if m.Role == constant.MessageRoleAssistant && !m.IsFallback {
			replies = append(replies, m.Content)
		}
	}
	eval := &entity.CardEvaluation{
		TotalMessages: len(replies),
		Categories:    make(map[string]int, len(constant.CardCategories)),
		EvaluatedAt:   time.Now(),
	}
	for _, c := range constant.CardCategories {
		eval.Categories[c] = 0
	}
	if len(replies) == 0 {
		return eval, nil
	}

	results := make([]Classification, len(replies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for i, reply := range replies {
		g.Go(func() error {
			c, err := e.Classify(gctx, reply)
			if err != nil {
				return fmt.Errorf("classify reply %d: %w", i, err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.CardWorthy {
			eval.CardWorthyCount++
			eval.Categories[r.Category]++
		}
	}
	return eval, nil
}
