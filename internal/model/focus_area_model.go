package model

import (
	"time"

	"github.com/google/uuid"
)

type FocusArea struct {
	Id          uuid.UUID             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm       string                `gorm:"type:varchar(16);not null;default:'production';index:idx_focus_areas_realm_user,priority:1"`
	UserId      uuid.UUID             `gorm:"type:uuid;not null;index:idx_focus_areas_realm_user,priority:2"`
	Text        string                `gorm:"type:text;not null"`
	Source      string                `gorm:"type:varchar(16);not null"`
	ArchivedAt  *time.Time            `gorm:"index"`
	Reflections []FocusAreaReflection `gorm:"foreignKey:FocusAreaId"`
	CreatedAt   time.Time             `gorm:"autoCreateTime"`
}

func (FocusArea) TableName() string {
	return "focus_areas"
}

type FocusAreaReflection struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FocusAreaId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reflection_area_session_text,priority:1"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reflection_area_session_text,priority:2"`
	Text        string    `gorm:"type:text;not null;uniqueIndex:uq_reflection_area_session_text,priority:3"`
	Date        time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FocusAreaReflection) TableName() string {
	return "focus_area_reflections"
}
