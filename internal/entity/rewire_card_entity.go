package entity

import (
	"time"

	"github.com/google/uuid"
)

type RewireCard struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	SessionId *uuid.UUID
	Category  string
	Title     string
	Content   string
	CreatedAt time.Time
}

type Win struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	SessionId *uuid.UUID
	Text      string
	CreatedAt time.Time
}
