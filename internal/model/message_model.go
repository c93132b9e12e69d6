package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Realm      string    `gorm:"type:varchar(16);not null;default:'production';index:idx_messages_realm_user,priority:1"`
	SessionId  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_realm_user,priority:2"`
	Role       string    `gorm:"type:varchar(16);not null"`
	Content    string    `gorm:"type:text;not null"`
	IsFallback bool      `gorm:"not null;default:false"`
	// Seq breaks created_at ties by insertion order.
	Seq       int64     `gorm:"autoIncrement;not null;index"`
	CreatedAt time.Time `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}
