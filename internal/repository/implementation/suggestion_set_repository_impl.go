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

type SuggestionSetRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewSuggestionSetRepository(db *gorm.DB, r realm.Realm) contract.SuggestionSetRepository {
	return &SuggestionSetRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *SuggestionSetRepositoryImpl) Create(ctx context.Context, set *entity.SuggestionSet) error {
	m := r.mapper.SuggestionSetToModel(set)
	m.Realm = string(r.realm)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
		return err
	}
	*set = *r.mapper.SuggestionSetToEntity(m)
	return nil
}

func (r *SuggestionSetRepositoryImpl) FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.SuggestionSet, error) {
	var m model.SuggestionSet
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.SuggestionSetToEntity(&m), nil
}

func (r *SuggestionSetRepositoryImpl) ExistsForSession(ctx context.Context, sessionId uuid.UUID) (bool, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.SuggestionSet{}),
		realmScoped(r.realm, specification.FilterBy{Field: "generated_after_session_id", Value: sessionId})...)
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
