package implementation

import (
	"context"
	"time"

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

type FocusAreaRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewFocusAreaRepository(db *gorm.DB, r realm.Realm) contract.FocusAreaRepository {
	return &FocusAreaRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *FocusAreaRepositoryImpl) Create(ctx context.Context, focusArea *entity.FocusArea) error {
	m := r.mapper.FocusAreaToModel(focusArea)
	m.Realm = string(r.realm)
	m.Reflections = nil
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*focusArea = *r.mapper.FocusAreaToEntity(m)
	return nil
}

func (r *FocusAreaRepositoryImpl) Archive(ctx context.Context, id uuid.UUID) error {
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.FocusArea{}),
		realmScoped(r.realm, specification.ByID{ID: id}, specification.NotArchived{})...)
	return query.Update("archived_at", time.Now()).Error
}

func (r *FocusAreaRepositoryImpl) preloadReflections(db *gorm.DB) *gorm.DB {
	return db.Preload("Reflections", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC").Order("created_at ASC")
	})
}

func (r *FocusAreaRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.FocusArea, error) {
	var models []*model.FocusArea
	query := applySpecifications(r.preloadReflections(r.db.WithContext(ctx)), realmScoped(r.realm, specs...)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.FocusArea, len(models))
	for i, m := range models {
		entities[i] = r.mapper.FocusAreaToEntity(m)
	}
	return entities, nil
}

func (r *FocusAreaRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.FocusArea, error) {
	areas, err := r.find(ctx, specification.ByID{ID: id})
	if err != nil || len(areas) == 0 {
		return nil, err
	}
	return areas[0], nil
}

func (r *FocusAreaRepositoryImpl) FindActiveByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error) {
	return r.find(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.NotArchived{},
		specification.OrderBy{Field: "created_at"},
	)
}

func (r *FocusAreaRepositoryImpl) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error) {
	return r.find(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at"},
	)
}

func (r *FocusAreaRepositoryImpl) AppendReflections(ctx context.Context, reflections []*entity.FocusAreaReflection) error {
	if len(reflections) == 0 {
		return nil
	}
	models := make([]*model.FocusAreaReflection, len(reflections))
	for i, reflection := range reflections {
		models[i] = r.mapper.ReflectionToModel(reflection)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models).Error
}

func (r *FocusAreaRepositoryImpl) ResetReflections(ctx context.Context, userId uuid.UUID) error {
	owned := applySpecifications(r.db.WithContext(ctx).Model(&model.FocusArea{}).Select("id"),
		realmScoped(r.realm, specification.UserOwnedBy{UserID: userId})...)
	return r.db.WithContext(ctx).
		Where("focus_area_id IN (?)", owned).
		Delete(&model.FocusAreaReflection{}).Error
}
