// Package understanding evolves the per-user narrative after each session and
// seeds it from onboarding answers.
package understanding

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"money-coach-be/internal/entity"
	"money-coach-be/pkg/coach/prompt"
	"money-coach-be/pkg/llm"

	"github.com/google/uuid"
)

// Reflection is a note the model attached to a focus area by its text.
type Reflection struct {
	FocusArea  string `json:"focus_area"`
	Reflection string `json:"reflection"`
}

// Evolution is the model's rewrite of the understanding after one session.
type Evolution struct {
	Narrative            string       `json:"narrative"`
	Snippet              string       `json:"snippet"`
	StageOfChange        string       `json:"stage_of_change"`
	FocusAreaReflections []Reflection `json:"focus_area_reflections"`
}

type Evolver struct {
	provider llm.LLMProvider
}

func NewEvolver(provider llm.LLMProvider) *Evolver {
	return &Evolver{provider: provider}
}

// Evolve asks the model for the next understanding. Fallback replies in the
// transcript are ignored.
func (e *Evolver) Evolve(ctx context.Context, current *entity.Understanding, transcript []*entity.Message, focusAreas []*entity.FocusArea) (*Evolution, error) {
	text := prompt.Transcript(transcript)
	if text == "" {
		return nil, fmt.Errorf("evolve: empty transcript")
	}

	var evo Evolution
	err := llm.GenerateStructured(ctx, e.provider, prompt.Evolve(prompt.EvolveInput{
		Understanding: current,
		Transcript:    text,
		FocusAreas:    focusAreas,
	}), &evo, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("evolve: %w", err)
	}
	if strings.TrimSpace(evo.Narrative) == "" {
		return nil, fmt.Errorf("evolve: %w: empty narrative", llm.ErrParse)
	}
	return &evo, nil
}

// Apply returns the replacement understanding for userId. Tension fields and
// identity carry over from current, which may be nil.
func Apply(current *entity.Understanding, userId uuid.UUID, evo *Evolution, sessionId uuid.UUID) *entity.Understanding {
	next := &entity.Understanding{UserId: userId}
	if current != nil {
		*next = *current
	}
	if next.Id == uuid.Nil {
		next.Id = uuid.New()
	}
	next.Narrative = evo.Narrative
	next.Snippet = evo.Snippet
	if evo.StageOfChange != "" {
		next.StageOfChange = evo.StageOfChange
	}
	sid := sessionId
	next.EvolvedAfterSessionId = &sid
	return next
}

// MatchFocusArea finds the active focus area a reflection refers to: an exact
// case-insensitive match first, then containment in either direction, then
// the area sharing the most content words, as long as at least half of the
// reflection's content words appear in it.
func MatchFocusArea(areas []*entity.FocusArea, text string) *entity.FocusArea {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	for _, a := range areas {
		if strings.ToLower(strings.TrimSpace(a.Text)) == needle {
			return a
		}
	}
	for _, a := range areas {
		hay := strings.ToLower(strings.TrimSpace(a.Text))
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return a
		}
	}

	words := contentWords(needle)
	if len(words) == 0 {
		return nil
	}
	var best *entity.FocusArea
	bestShared := 0
	for _, a := range areas {
		shared := 0
		for w := range contentWords(a.Text) {
			if words[w] {
				shared++
			}
		}
		if shared > bestShared {
			best, bestShared = a, shared
		}
	}
	if bestShared == 0 || bestShared*2 < len(words) {
		return nil
	}
	return best
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "off": true,
	"from": true, "into": true, "about": true, "more": true, "some": true,
	"this": true, "that": true, "our": true, "your": true, "their": true,
}

// contentWords returns the stemmed words of text that carry meaning.
func contentWords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) < 3 || stopWords[w] {
			continue
		}
		out[stem(w)] = true
	}
	return out
}

// stem strips one common suffix so "savings", "saving" and "save" compare equal.
func stem(w string) string {
	for _, suffix := range []string{"ings", "ing", "es", "s", "e"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 3 {
			return strings.TrimSuffix(w, suffix)
		}
	}
	return w
}

// Reflections turns the evolution's focus-area notes into reflection rows
// dated at the session start. Unmatched notes are dropped.
func Reflections(evo *Evolution, areas []*entity.FocusArea, sessionId uuid.UUID, date time.Time) []*entity.FocusAreaReflection {
	if evo == nil {
		return nil
	}
	var out []*entity.FocusAreaReflection
	for _, r := range evo.FocusAreaReflections {
		text := strings.TrimSpace(r.Reflection)
		if text == "" {
			continue
		}
		area := MatchFocusArea(areas, r.FocusArea)
		if area == nil {
			continue
		}
		out = append(out, &entity.FocusAreaReflection{
			Id:          uuid.New(),
			FocusAreaId: area.Id,
			SessionId:   sessionId,
			Date:        date,
			Text:        text,
		})
	}
	return out
}
