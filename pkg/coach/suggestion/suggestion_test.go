package suggestion

import (
	"context"
	"testing"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"
	"money-coach-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		previous   []string
		wantTitles []string
		wantErr    error
	}{
		{
			name:       "drops previous titles case insensitively",
			reply:      `{"suggestions":[{"title":"Money Dates","length":"quick"},{"title":"Subscription audit","length":"deep"}]}`,
			previous:   []string{"money dates"},
			wantTitles: []string{"Subscription audit"},
		},
		{
			name:       "drops blanks and duplicates",
			reply:      `{"suggestions":[{"title":" "},{"title":"Payday plan"},{"title":"payday plan"}]}`,
			wantTitles: []string{"Payday plan"},
		},
		{
			name:       "keeps repeats when nothing new is offered",
			reply:      `{"suggestions":[{"title":"Money Dates"},{"title":"money dates"}]}`,
			previous:   []string{"Money Dates"},
			wantTitles: []string{"Money Dates"},
		},
		{
			name:     "only blank titles",
			reply:    `{"suggestions":[{"title":" "}]}`,
			previous: []string{"Money Dates"},
			wantErr:  llm.ErrParse,
		},
		{
			name:    "not json",
			reply:   "sorry",
			wantErr: llm.ErrParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llmtest.New().On(prompt.TaskSuggestions, tt.reply)

			got, err := NewGenerator(provider).Generate(context.Background(), Context{PreviousTitles: tt.previous})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			var titles []string
			for _, s := range got {
				titles = append(titles, s.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestNormalize_DefaultsLength(t *testing.T) {
	got, err := normalize([]entity.Suggestion{{Title: "a", Length: "epic"}, {Title: "b", Length: constant.SuggestionLengthStanding}}, nil)

	require.NoError(t, err)
	assert.Equal(t, constant.SuggestionLengthMedium, got[0].Length)
	assert.Equal(t, constant.SuggestionLengthStanding, got[1].Length)
}

func TestGenerator_Seed(t *testing.T) {
	provider := llmtest.New().On(prompt.TaskSeedSuggestions, `{"suggestions":[{"title":"Where does the money go?","teaser":"t","length":"quick"}]}`)

	got, err := NewGenerator(provider).Seed(context.Background(), &entity.OnboardingProfile{Goals: []string{"Save for a house"}})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, provider.Calls(prompt.TaskSeedSuggestions)[0].Prompt, "Save for a house")
}
