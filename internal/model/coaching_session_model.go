package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotesColumn struct {
	Headline     string   `json:"headline"`
	Narrative    string   `json:"narrative"`
	KeyMoments   []string `json:"key_moments"`
	CardsCreated []string `json:"cards_created"`
}

type CoachingSession struct {
	Id                uuid.UUID                                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm             string                                   `gorm:"type:varchar(16);not null;default:'production';index:idx_sessions_realm_user_status,priority:1"`
	UserId            uuid.UUID                                `gorm:"type:uuid;not null;index:idx_sessions_realm_user_status,priority:2"`
	Status            string                                   `gorm:"type:varchar(16);not null;default:'active';index:idx_sessions_realm_user_status,priority:3"`
	Title             string                                   `gorm:"type:text"`
	Notes             *datatypes.JSONType[NotesColumn]         `gorm:"type:jsonb"`
	Hypothesis        string                                   `gorm:"type:text"`
	LeveragePoint     string                                   `gorm:"type:text"`
	Curiosities       datatypes.JSONSlice[string]              `gorm:"type:jsonb"`
	OpeningDirection  string                                   `gorm:"type:text"`
	NarrativeSnapshot *string                                  `gorm:"type:text"`
	FocusAreaId       *uuid.UUID                               `gorm:"type:uuid"`
	CreatedAt         time.Time                                `gorm:"autoCreateTime;index"`
	UpdatedAt         time.Time                                `gorm:"autoUpdateTime"`
	CompletedAt       *time.Time
}

func (CoachingSession) TableName() string {
	return "coaching_sessions"
}
