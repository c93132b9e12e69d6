package understanding

import (
	"context"
	"fmt"
	"strings"

	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"

	"github.com/google/uuid"
)

type seedOutput struct {
	Narrative     string `json:"narrative"`
	Snippet       string `json:"snippet"`
	StageOfChange string `json:"stage_of_change"`
}

type Seeder struct {
	provider llm.LLMProvider
}

func NewSeeder(provider llm.LLMProvider) *Seeder {
	return &Seeder{provider: provider}
}

// Seed writes a first understanding from onboarding answers.
func (s *Seeder) Seed(ctx context.Context, userId uuid.UUID, onboarding *entity.OnboardingProfile) (*entity.Understanding, error) {
	var out seedOutput
	if err := llm.GenerateStructured(ctx, s.provider, prompt.SeedNarrative(onboarding), &out, llm.WithTemperature(0.3)); err != nil {
		return nil, fmt.Errorf("seed understanding: %w", err)
	}
	if strings.TrimSpace(out.Narrative) == "" {
		return nil, fmt.Errorf("seed understanding: %w: empty narrative", llm.ErrParse)
	}
	return &entity.Understanding{
		Id:            uuid.New(),
		UserId:        userId,
		Narrative:     out.Narrative,
		Snippet:       out.Snippet,
		StageOfChange: out.StageOfChange,
	}, nil
}
