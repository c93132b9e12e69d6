package unitofwork

import (
	"context"
	"fmt"

	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db    *gorm.DB
	tx    *gorm.DB
	realm realm.Realm
}

func NewUnitOfWork(db *gorm.DB, r realm.Realm) UnitOfWork {
	return &UnitOfWorkImpl{
		db:    db,
		realm: r,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Realm() realm.Realm {
	return u.realm
}

// Repository Accessors

func (u *UnitOfWorkImpl) CoachingSessionRepository() contract.CoachingSessionRepository {
	return implementation.NewCoachingSessionRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) UnderstandingRepository() contract.UnderstandingRepository {
	return implementation.NewUnderstandingRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) OnboardingRepository() contract.OnboardingRepository {
	return implementation.NewOnboardingRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) FocusAreaRepository() contract.FocusAreaRepository {
	return implementation.NewFocusAreaRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) SuggestionSetRepository() contract.SuggestionSetRepository {
	return implementation.NewSuggestionSetRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) BriefingRepository() contract.BriefingRepository {
	return implementation.NewBriefingRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) RewireCardRepository() contract.RewireCardRepository {
	return implementation.NewRewireCardRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) WinRepository() contract.WinRepository {
	return implementation.NewWinRepository(u.getDB(), u.realm)
}

func (u *UnitOfWorkImpl) SimProfileRepository() contract.SimProfileRepository {
	return implementation.NewSimProfileRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SimulatorRunRepository() contract.SimulatorRunRepository {
	return implementation.NewSimulatorRunRepository(u.getDB())
}
