package entity

import (
	"time"

	"github.com/google/uuid"
)

type FocusArea struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Text        string
	Source      string
	ArchivedAt  *time.Time
	Reflections []FocusAreaReflection
	CreatedAt   time.Time
}

type FocusAreaReflection struct {
	Id          uuid.UUID
	FocusAreaId uuid.UUID
	SessionId   uuid.UUID
	Date        time.Time
	Text        string
	CreatedAt   time.Time
}
