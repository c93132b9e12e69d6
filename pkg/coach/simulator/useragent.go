package simulator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"
)

const openingCue = "(The coach is waiting for you to start. Say what is on your mind about money.)"

// UserAgent plays the synthetic user of a simulation.
type UserAgent struct {
	provider llm.LLMProvider
	model    string
	now      func() time.Time
}

func NewUserAgent(provider llm.LLMProvider, model string) *UserAgent {
	return &UserAgent{provider: provider, model: model, now: time.Now}
}

// Next writes the persona's next message given the transcript so far. Roles
// are mirrored so the model speaks as the user.
func (a *UserAgent) Next(ctx context.Context, persona string, transcript []*entity.Message) (string, error) {
	history := []llm.Message{{Role: "system", Content: prompt.UserAgent(persona, a.now())}}
	for _, m := range transcript {
		if m.IsFallback {
			continue
		}
		role := "assistant"
		if m.Role == constant.MessageRoleAssistant {
			role = "user"
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}
	if history[len(history)-1].Role != "user" {
		history = append(history, llm.Message{Role: "user", Content: openingCue})
	}

	text, err := a.provider.Chat(ctx, history, llm.WithTemperature(0.9), llm.WithModel(a.model))
	if err != nil {
		return "", fmt.Errorf("user agent: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("user agent: empty reply")
	}
	return text, nil
}
