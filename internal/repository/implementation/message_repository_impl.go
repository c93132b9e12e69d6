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

type MessageRepositoryImpl struct {
	db     *gorm.DB
	realm  realm.Realm
	mapper *mapper.CoachMapper
}

func NewMessageRepository(db *gorm.DB, r realm.Realm) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		realm:  r,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	m.Realm = string(r.realm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) first(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	query := applySpecifications(r.db.WithContext(ctx), realmScoped(r.realm, specs...)...)
	if err := query.First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Message, error) {
	return r.find(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.Chronological{},
	)
}

func (r *MessageRepositoryImpl) FindRecentBySession(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.Message, error) {
	messages, err := r.find(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.Chronological{Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepositoryImpl) CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}),
		realmScoped(r.realm, specification.BySessionID{SessionID: sessionId})...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) FindLastByUser(ctx context.Context, userId uuid.UUID) (*entity.Message, error) {
	return r.first(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.Chronological{Desc: true},
	)
}

func (r *MessageRepositoryImpl) FindLastBySession(ctx context.Context, sessionId uuid.UUID) (*entity.Message, error) {
	return r.first(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.Chronological{Desc: true},
	)
}

func (r *MessageRepositoryImpl) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.Message, error) {
	return r.find(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.Chronological{},
	)
}

func (r *MessageRepositoryImpl) ReassignSession(ctx context.Context, messageIds []uuid.UUID, sessionId uuid.UUID) error {
	if len(messageIds) == 0 {
		return nil
	}
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}),
		realmScoped(r.realm, specification.ByIDs{IDs: messageIds})...)
	return query.Update("session_id", sessionId).Error
}
