// Package suggestion proposes the next conversations a user could start.
package suggestion

import (
	"context"
	"fmt"
	"strings"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"
)

const maxSuggestions = 4

type output struct {
	Suggestions []entity.Suggestion `json:"suggestions"`
}

// Context is what the model sees when proposing follow-up conversations.
type Context struct {
	Understanding  *entity.Understanding
	LatestNotes    *entity.SessionNotes
	Cards          []*entity.RewireCard
	Wins           []*entity.Win
	FocusAreas     []*entity.FocusArea
	PreviousTitles []string
}

type Generator struct {
	provider llm.LLMProvider
}

func NewGenerator(provider llm.LLMProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate returns fresh suggestions. Titles already offered are dropped.
func (g *Generator) Generate(ctx context.Context, in Context) ([]entity.Suggestion, error) {
	var out output
	err := llm.GenerateStructured(ctx, g.provider, prompt.Suggestions(prompt.SuggestionsInput{
		Understanding:  in.Understanding,
		LatestNotes:    in.LatestNotes,
		Cards:          in.Cards,
		Wins:           in.Wins,
		FocusAreas:     in.FocusAreas,
		PreviousTitles: in.PreviousTitles,
	}), &out, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return normalize(out.Suggestions, in.PreviousTitles)
}

// Seed proposes first conversations from onboarding answers.
func (g *Generator) Seed(ctx context.Context, onboarding *entity.OnboardingProfile) ([]entity.Suggestion, error) {
	var out output
	if err := llm.GenerateStructured(ctx, g.provider, prompt.SeedSuggestions(onboarding), &out, llm.WithTemperature(0.7)); err != nil {
		return nil, fmt.Errorf("seed suggestions: %w", err)
	}
	return normalize(out.Suggestions, nil)
}

func normalize(in []entity.Suggestion, previous []string) ([]entity.Suggestion, error) {
	seen := make(map[string]bool, len(previous))
	for _, t := range previous {
		seen[key(t)] = true
	}

	out := make([]entity.Suggestion, 0, len(in))
	for _, s := range in {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" || seen[key(s.Title)] {
			continue
		}
		seen[key(s.Title)] = true
		switch s.Length {
		case constant.SuggestionLengthQuick, constant.SuggestionLengthMedium,
			constant.SuggestionLengthDeep, constant.SuggestionLengthStanding:
		default:
			s.Length = constant.SuggestionLengthMedium
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		if len(previous) > 0 {
			// every title repeats an earlier one, keep the model's set as is
			return normalize(in, nil)
		}
		return nil, fmt.Errorf("%w: no usable suggestions", llm.ErrParse)
	}
	return out, nil
}

func key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
