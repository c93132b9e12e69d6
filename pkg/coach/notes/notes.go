// Package notes writes the fast-path summary of a closed session.
package notes

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

const headlineRunes = 60

type Writer struct {
	provider llm.LLMProvider
}

func NewWriter(provider llm.LLMProvider) *Writer {
	return &Writer{provider: provider}
}

// Write summarizes the transcript. The headline is required.
func (w *Writer) Write(ctx context.Context, session *entity.CoachingSession, messages []*entity.Message, understanding *entity.Understanding) (*entity.SessionNotes, error) {
	transcript := prompt.Transcript(messages)
	if transcript == "" {
		return nil, fmt.Errorf("session notes: empty transcript")
	}
	var out entity.SessionNotes
	err := llm.GenerateStructured(ctx, w.provider, prompt.SessionNotes(prompt.NotesInput{
		Transcript:    transcript,
		Understanding: understanding,
		Hypothesis:    session.Hypothesis,
	}), &out, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("session notes: %w", err)
	}
	if strings.TrimSpace(out.Headline) == "" {
		return nil, fmt.Errorf("session notes: %w: empty headline", llm.ErrParse)
	}
	return &out, nil
}

// Fallback builds notes without the model: the session date plus the opening
// user message.
func Fallback(session *entity.CoachingSession, messages []*entity.Message) *entity.SessionNotes {
	date := session.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}
	headline := "Session on " + date.Format("Jan 2, 2006")

	var opening string
	var moments []string
	for _, m := range messages {
		if m.Role != constant.MessageRoleUser {
			continue
		}
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		if opening == "" {
			opening = text
		}
		if len(moments) < 3 {
			moments = append(moments, truncate(text, 120))
		}
	}
	if opening != "" {
		headline += ": " + truncate(opening, headlineRunes)
	}
	return &entity.SessionNotes{
		Headline:   headline,
		Narrative:  fmt.Sprintf("%d messages exchanged.", len(messages)),
		KeyMoments: moments,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
