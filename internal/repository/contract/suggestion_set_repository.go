package contract

import (
	"context"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type SuggestionSetRepository interface {
	// Create inserts a new set. A second set for the same
	// GeneratedAfterSessionId is ignored.
	Create(ctx context.Context, set *entity.SuggestionSet) error
	FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.SuggestionSet, error)
	ExistsForSession(ctx context.Context, sessionId uuid.UUID) (bool, error)
}
