package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// FindBySession returns the transcript ordered by created_at, then insertion order.
	FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Message, error)
	// FindRecentBySession returns at most limit trailing messages, oldest first.
	FindRecentBySession(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.Message, error)
	CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error)
	FindLastByUser(ctx context.Context, userId uuid.UUID) (*entity.Message, error)
	FindLastBySession(ctx context.Context, sessionId uuid.UUID) (*entity.Message, error)
	FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.Message, error)
	ReassignSession(ctx context.Context, messageIds []uuid.UUID, sessionId uuid.UUID) error
}
