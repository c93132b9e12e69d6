package entity

import (
	"time"

	"github.com/google/uuid"
)

// Briefing is an immutable coaching plan; a new row is written on every
// recomputation.
type Briefing struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	Hypothesis           string
	LeveragePoint        string
	Curiosities          []string
	OpeningDirection     string
	TensionType          string
	SecondaryTensionType string
	CreatedAt            time.Time
}
