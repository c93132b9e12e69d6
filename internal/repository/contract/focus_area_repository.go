package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type FocusAreaRepository interface {
	Create(ctx context.Context, focusArea *entity.FocusArea) error
	Archive(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.FocusArea, error)
	// FindActiveByUser returns non-archived areas with reflections in date order.
	FindActiveByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error)
	FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error)
	// AppendReflections inserts reflections, skipping any {focusArea, session, text}
	// triple that already exists.
	AppendReflections(ctx context.Context, reflections []*entity.FocusAreaReflection) error
	ResetReflections(ctx context.Context, userId uuid.UUID) error
}
