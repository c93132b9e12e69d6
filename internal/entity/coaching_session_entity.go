package entity

import (
	"time"

	"github.com/google/uuid"
)

type CoachingSession struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Title             string
	Status            string
	Notes             *SessionNotes
	Hypothesis        string
	LeveragePoint     string
	Curiosities       []string
	OpeningDirection  string
	NarrativeSnapshot *string
	FocusAreaId       *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	CompletedAt       *time.Time
}

// SessionNotes is the fast-path summary written when a session closes.
type SessionNotes struct {
	Headline     string   `json:"headline"`
	Narrative    string   `json:"narrative"`
	KeyMoments   []string `json:"key_moments"`
	CardsCreated []string `json:"cards_created"`
}
