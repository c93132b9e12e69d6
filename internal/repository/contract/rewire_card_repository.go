package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type RewireCardRepository interface {
	Create(ctx context.Context, card *entity.RewireCard) error
	FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RewireCard, error)
	FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.RewireCard, error)
}

type WinRepository interface {
	Create(ctx context.Context, win *entity.Win) error
	FindRecentByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Win, error)
}
