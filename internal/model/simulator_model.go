package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SimProfile struct {
	Id               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string     `gorm:"type:text;not null"`
	PersonaPrompt    string     `gorm:"type:text;not null"`
	ClonedFromUserId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
}

func (SimProfile) TableName() string {
	return "sim_profiles"
}

type CardEvaluationColumn struct {
	CardWorthyCount int            `json:"card_worthy_count"`
	TotalMessages   int            `json:"total_messages"`
	Categories      map[string]int `json:"categories"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}

type SimulatorRun struct {
	Id             uuid.UUID                                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SimProfileId   uuid.UUID                                 `gorm:"type:uuid;not null;index"`
	SessionId      uuid.UUID                                 `gorm:"type:uuid;not null;uniqueIndex"`
	Mode           string                                    `gorm:"type:varchar(16);not null"`
	NumTurns       *int                                      `gorm:"type:integer"`
	Status         string                                    `gorm:"type:varchar(16);not null;index"`
	StopReason     string                                    `gorm:"type:varchar(32)"`
	CardEvaluation *datatypes.JSONType[CardEvaluationColumn] `gorm:"type:jsonb"`
	ErrorMessage   string                                    `gorm:"type:text"`
	CreatedAt      time.Time                                 `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                                 `gorm:"autoUpdateTime"`
	CompletedAt    *time.Time
}

func (SimulatorRun) TableName() string {
	return "simulator_runs"
}
