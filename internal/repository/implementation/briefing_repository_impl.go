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
)

type BriefingRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewBriefingRepository(db *gorm.DB, r realm.Realm) contract.BriefingRepository {
	return &BriefingRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *BriefingRepositoryImpl) Create(ctx context.Context, briefing *entity.Briefing) error {
	m := r.mapper.BriefingToModel(briefing)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*briefing = *r.mapper.BriefingToEntity(m)
	return nil
}

func (r *BriefingRepositoryImpl) FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.Briefing, error) {
	var m model.Briefing
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.BriefingToEntity(&m), nil
}
