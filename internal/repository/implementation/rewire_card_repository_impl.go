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

type RewireCardRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewRewireCardRepository(db *gorm.DB, r realm.Realm) contract.RewireCardRepository {
	return &RewireCardRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *RewireCardRepositoryImpl) Create(ctx context.Context, card *entity.RewireCard) error {
	m := r.mapper.RewireCardToModel(card)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*card = *r.mapper.RewireCardToEntity(m)
	return nil
}

func (r *RewireCardRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.RewireCard, error) {
	var models []*model.RewireCard
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	cards := make([]*entity.RewireCard, len(models))
	for i, m := range models {
		cards[i] = r.mapper.RewireCardToEntity(m)
	}
	return cards, nil
}

func (r *RewireCardRepositoryImpl) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RewireCard, error) {
	return r.find(ctx, specification.UserOwnedBy{UserID: userId}, specification.OrderBy{Field: "created_at", Desc: true})
}

func (r *RewireCardRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.RewireCard, error) {
	return r.find(ctx, specification.BySessionID{SessionID: sessionId}, specification.OrderBy{Field: "created_at"})
}

type WinRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewWinRepository(db *gorm.DB, r realm.Realm) contract.WinRepository {
	return &WinRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *WinRepositoryImpl) Create(ctx context.Context, win *entity.Win) error {
	m := r.mapper.WinToModel(win)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*win = *r.mapper.WinToEntity(m)
	return nil
}

func (r *WinRepositoryImpl) FindRecentByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Win, error) {
	var models []*model.Win
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	wins := make([]*entity.Win, len(models))
	for i, m := range models {
		wins[i] = r.mapper.WinToEntity(m)
	}
	return wins, nil
}
