package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type UnderstandingRepository interface {
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error)
	// FindByUserForUpdate locks the row for the surrounding transaction.
	FindByUserForUpdate(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error)
	// Upsert fully replaces the user's understanding.
	Upsert(ctx context.Context, understanding *entity.Understanding) error
}

type OnboardingRepository interface {
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.OnboardingProfile, error)
	Upsert(ctx context.Context, profile *entity.OnboardingProfile) error
}
