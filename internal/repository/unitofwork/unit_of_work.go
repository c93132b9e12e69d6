package unitofwork

import (
	"context"

	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// Realm is the data partition every realm-scoped repository of this unit reads and writes.
	Realm() realm.Realm

	CoachingSessionRepository() contract.CoachingSessionRepository
	MessageRepository() contract.MessageRepository
	UnderstandingRepository() contract.UnderstandingRepository
	OnboardingRepository() contract.OnboardingRepository
	FocusAreaRepository() contract.FocusAreaRepository
	SuggestionSetRepository() contract.SuggestionSetRepository
	BriefingRepository() contract.BriefingRepository
	RewireCardRepository() contract.RewireCardRepository
	WinRepository() contract.WinRepository

	SimProfileRepository() contract.SimProfileRepository
	SimulatorRunRepository() contract.SimulatorRunRepository
}
