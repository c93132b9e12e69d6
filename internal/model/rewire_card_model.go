package model

import (
	"time"

	"github.com/google/uuid"
)

type RewireCard struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm     string     `gorm:"type:varchar(16);not null;default:'production';index:idx_rewire_cards_realm_user,priority:1"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index:idx_rewire_cards_realm_user,priority:2"`
	SessionId *uuid.UUID `gorm:"type:uuid;index"`
	Category  string     `gorm:"type:varchar(32)"`
	Title     string     `gorm:"type:text;not null"`
	Content   string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (RewireCard) TableName() string {
	return "rewire_cards"
}

type Win struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm     string     `gorm:"type:varchar(16);not null;default:'production';index:idx_wins_realm_user,priority:1"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index:idx_wins_realm_user,priority:2"`
	SessionId *uuid.UUID `gorm:"type:uuid"`
	Text      string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
}

func (Win) TableName() string {
	return "wins"
}
