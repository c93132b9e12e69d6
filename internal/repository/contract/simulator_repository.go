package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type SimProfileRepository interface {
	Create(ctx context.Context, profile *entity.SimProfile) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.SimProfile, error)
	FindAll(ctx context.Context) ([]*entity.SimProfile, error)
}

type SimulatorRunRepository interface {
	Create(ctx context.Context, run *entity.SimulatorRun) error
	Update(ctx context.Context, run *entity.SimulatorRun) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.SimulatorRun, error)
	FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.SimulatorRun, error)
	FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.SimulatorRun, error)
}
