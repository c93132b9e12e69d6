package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	UserId    uuid.UUID
	Role      string
	Content   string
	// IsFallback marks a substitute reply produced when generation failed.
	// Fallback replies are shown to the user but never fed to evolution.
	IsFallback bool
	Seq        int64
	CreatedAt  time.Time
}
