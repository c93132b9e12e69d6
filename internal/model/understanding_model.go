package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Understanding struct {
	Id                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm                 string     `gorm:"type:varchar(16);not null;default:'production';uniqueIndex:uq_understandings_realm_user,priority:1"`
	UserId                uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_understandings_realm_user,priority:2"`
	Narrative             string     `gorm:"type:text"`
	Snippet               string     `gorm:"type:text"`
	StageOfChange         string     `gorm:"type:varchar(32)"`
	TensionType           string     `gorm:"type:varchar(64)"`
	SecondaryTensionType  string     `gorm:"type:varchar(64)"`
	EvolvedAfterSessionId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

func (Understanding) TableName() string {
	return "understandings"
}

type OnboardingProfile struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm     string                      `gorm:"type:varchar(16);not null;default:'production';uniqueIndex:uq_onboarding_realm_user,priority:1"`
	UserId    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:uq_onboarding_realm_user,priority:2"`
	Answers   datatypes.JSONMap           `gorm:"type:jsonb"`
	Goals     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
}

func (OnboardingProfile) TableName() string {
	return "onboarding_profiles"
}
