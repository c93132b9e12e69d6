package implementation

import (
	"context"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/mapper"
	"money-coach-be/internal/model"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnderstandingRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewUnderstandingRepository(db *gorm.DB, r realm.Realm) contract.UnderstandingRepository {
	return &UnderstandingRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *UnderstandingRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) (*entity.Understanding, error) {
	var m model.Understanding
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.UnderstandingToEntity(&m), nil
}

func (r *UnderstandingRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error) {
	return r.find(ctx, specification.UserOwnedBy{UserID: userId})
}

func (r *UnderstandingRepositoryImpl) FindByUserForUpdate(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error) {
	return r.find(ctx, specification.UserOwnedBy{UserID: userId}, specification.ForUpdate{})
}

func (r *UnderstandingRepositoryImpl) Upsert(ctx context.Context, understanding *entity.Understanding) error {
	m := r.mapper.UnderstandingToModel(understanding)
	m.Realm = string(r.realm)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "realm"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"narrative",
			"snippet",
			"stage_of_change",
			"tension_type",
			"secondary_tension_type",
			"evolved_after_session_id",
			"updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	stored, err := r.FindByUser(ctx, understanding.UserId)
	if err != nil {
		return err
	}
	if stored != nil {
		*understanding = *stored
	}
	return nil
}

type OnboardingRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewOnboardingRepository(db *gorm.DB, r realm.Realm) contract.OnboardingRepository {
	return &OnboardingRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *OnboardingRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.OnboardingProfile, error) {
	var m model.OnboardingProfile
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specification.UserOwnedBy{UserID: userId})...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.OnboardingToEntity(&m), nil
}

func (r *OnboardingRepositoryImpl) Upsert(ctx context.Context, profile *entity.OnboardingProfile) error {
	m := r.mapper.OnboardingToModel(profile)
	m.Realm = string(r.realm)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "realm"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "goals"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	stored, err := r.FindByUser(ctx, profile.UserId)
	if err != nil {
		return err
	}
	if stored != nil {
		*profile = *stored
	}
	return nil
}
