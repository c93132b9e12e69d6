package implementation

import (
	"context"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/mapper"
	"money-coach-be/internal/model"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoachingSessionRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewCoachingSessionRepository(db *gorm.DB, r realm.Realm) contract.CoachingSessionRepository {
	return &CoachingSessionRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *CoachingSessionRepositoryImpl) Create(ctx context.Context, session *entity.CoachingSession) error {
	m := r.mapper.SessionToModel(session)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *CoachingSessionRepositoryImpl) Update(ctx context.Context, session *entity.CoachingSession) error {
	m := r.mapper.SessionToModel(session)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *CoachingSessionRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.CoachingSession, error) {
	var m model.CoachingSession
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *CoachingSessionRepositoryImpl) findAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CoachingSession, error) {
	var models []*model.CoachingSession
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CoachingSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *CoachingSessionRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.CoachingSession, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *CoachingSessionRepositoryImpl) FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	return r.findOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: constant.SessionStatusActive},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

func (r *CoachingSessionRepositoryImpl) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.CoachingSession, error) {
	return r.findAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func (r *CoachingSessionRepositoryImpl) FindRecentCompletedByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.CoachingSession, error) {
	return r.findAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: constant.SessionStatusCompleted},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (r *CoachingSessionRepositoryImpl) FindActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.CoachingSession, error) {
	return r.findAll(ctx,
		specification.ByStatus{Status: constant.SessionStatusActive},
		specification.CreatedBefore{Cutoff: cutoff},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func (r *CoachingSessionRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.CoachingSession{}),
		realmScoped(r.realm, specification.UserOwnedBy{UserID: userId})...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
