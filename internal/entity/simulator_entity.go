package entity

import (
	"time"

	"github.com/google/uuid"
)

// SimProfile is a synthetic user. Its Id doubles as the user id of the
// simulation realm rows it owns.
type SimProfile struct {
	Id               uuid.UUID
	Name             string
	PersonaPrompt    string
	ClonedFromUserId *uuid.UUID
	CreatedAt        time.Time
}

type SimulatorRun struct {
	Id             uuid.UUID
	SimProfileId   uuid.UUID
	SessionId      uuid.UUID
	Mode           string
	NumTurns       *int
	Status         string
	StopReason     string
	CardEvaluation *CardEvaluation
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	CompletedAt    *time.Time
}

type CardEvaluation struct {
	CardWorthyCount int            `json:"card_worthy_count"`
	TotalMessages   int            `json:"total_messages"`
	Categories      map[string]int `json:"categories"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}
