package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SuggestionColumn struct {
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

type SuggestionSet struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm  string    `gorm:"type:varchar(16);not null;default:'production';index:idx_suggestion_sets_realm_user,priority:1"`
	UserId uuid.UUID `gorm:"type:uuid;not null;index:idx_suggestion_sets_realm_user,priority:2"`
	// One set per closed session; the unique index keeps re-delivered close
	// tasks from inserting twice.
	GeneratedAfterSessionId *uuid.UUID                            `gorm:"type:uuid;uniqueIndex"`
	Suggestions             datatypes.JSONSlice[SuggestionColumn] `gorm:"type:jsonb"`
	CreatedAt               time.Time                             `gorm:"autoCreateTime;index"`
}

func (SuggestionSet) TableName() string {
	return "suggestion_sets"
}
