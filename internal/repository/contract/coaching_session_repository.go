package contract

import (
	"context"
	"time"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type CoachingSessionRepository interface {
	Create(ctx context.Context, session *entity.CoachingSession) error
	Update(ctx context.Context, session *entity.CoachingSession) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.CoachingSession, error)
	FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error)
	// FindAllByUser returns the user's sessions oldest first.
	FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.CoachingSession, error)
	FindRecentCompletedByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.CoachingSession, error)
	// FindActiveCreatedBefore lists active sessions of every user opened before cutoff.
	FindActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.CoachingSession, error)
	CountByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}
