package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Briefing struct {
	Id                   uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm                string                      `gorm:"type:varchar(16);not null;default:'production';index:idx_briefings_realm_user,priority:1"`
	UserId               uuid.UUID                   `gorm:"type:uuid;not null;index:idx_briefings_realm_user,priority:2"`
	Hypothesis           string                      `gorm:"type:text"`
	LeveragePoint        string                      `gorm:"type:text"`
	Curiosities          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	OpeningDirection     string                      `gorm:"type:text"`
	TensionType          string                      `gorm:"type:varchar(64)"`
	SecondaryTensionType string                      `gorm:"type:varchar(64)"`
	CreatedAt            time.Time                   `gorm:"autoCreateTime;index"`
}

func (Briefing) TableName() string {
	return "briefings"
}
