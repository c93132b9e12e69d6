package entity

import (
	"time"

	"github.com/google/uuid"
)

type Understanding struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	Narrative             string
	Snippet               string
	StageOfChange         string
	TensionType           string
	SecondaryTensionType  string
	EvolvedAfterSessionId *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             *time.Time
}

type OnboardingProfile struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Answers   map[string]string
	Goals     []string
	CreatedAt time.Time
}
