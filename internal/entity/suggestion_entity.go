package entity

import (
	"time"

	"github.com/google/uuid"
)

type SuggestionSet struct {
	Id                      uuid.UUID
	UserId                  uuid.UUID
	Suggestions             []Suggestion
	GeneratedAfterSessionId *uuid.UUID
	CreatedAt               time.Time
}

type Suggestion struct {
	Title            string   `json:"title"`
	Teaser           string   `json:"teaser"`
	Length           string   `json:"length"`
	Hypothesis       string   `json:"hypothesis,omitempty"`
	LeveragePoint    string   `json:"leverage_point,omitempty"`
	Curiosities      []string `json:"curiosities,omitempty"`
	OpeningDirection string   `json:"opening_direction,omitempty"`
	OpeningMessage   string   `json:"opening_message,omitempty"`
	FocusAreaText    string   `json:"focus_area_text,omitempty"`
}

// Titles lists the suggestion titles of the set, used to avoid repeats.
func (s *SuggestionSet) Titles() []string {
	if s == nil {
		return nil
	}
	titles := make([]string, 0, len(s.Suggestions))
	for _, sg := range s.Suggestions {
		titles = append(titles, sg.Title)
	}
	return titles
}
