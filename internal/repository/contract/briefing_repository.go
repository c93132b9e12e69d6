package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type BriefingRepository interface {
	Create(ctx context.Context, briefing *entity.Briefing) error
	FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.Briefing, error)
}
