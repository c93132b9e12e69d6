package implementation

import (
	"context"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/mapper"
	"money-coach-be/internal/model"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Simulator tables hold tooling state and are not realm scoped.

type SimProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CoachMapper
}

func NewSimProfileRepository(db *gorm.DB) contract.SimProfileRepository {
	return &SimProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *SimProfileRepositoryImpl) Create(ctx context.Context, profile *entity.SimProfile) error {
	m := r.mapper.SimProfileToModel(profile)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*profile = *r.mapper.SimProfileToEntity(m)
	return nil
}

func (r *SimProfileRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.SimProfile, error) {
	var m model.SimProfile
	if err := (specification.ByID{ID: id}).Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.SimProfileToEntity(&m), nil
}

func (r *SimProfileRepositoryImpl) FindAll(ctx context.Context) ([]*entity.SimProfile, error) {
	var models []*model.SimProfile
	query := specification.OrderBy{Field: "created_at"}.Apply(r.db.WithContext(ctx))
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	profiles := make([]*entity.SimProfile, len(models))
	for i, m := range models {
		profiles[i] = r.mapper.SimProfileToEntity(m)
	}
	return profiles, nil
}

type SimulatorRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CoachMapper
}

func NewSimulatorRunRepository(db *gorm.DB) contract.SimulatorRunRepository {
	return &SimulatorRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewCoachMapper(),
	}
}

func (r *SimulatorRunRepositoryImpl) Create(ctx context.Context, run *entity.SimulatorRun) error {
	m := r.mapper.SimulatorRunToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateCreate(err)
	}
	*run = *r.mapper.SimulatorRunToEntity(m)
	return nil
}

func (r *SimulatorRunRepositoryImpl) Update(ctx context.Context, run *entity.SimulatorRun) error {
	m := r.mapper.SimulatorRunToModel(run)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.SimulatorRunToEntity(m)
	return nil
}

func (r *SimulatorRunRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.SimulatorRun, error) {
	var m model.SimulatorRun
	if err := (specification.ByID{ID: id}).Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.SimulatorRunToEntity(&m), nil
}

func (r *SimulatorRunRepositoryImpl) FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.SimulatorRun, error) {
	var models []*model.SimulatorRun
	query := applySpecifications(r.db.WithContext(ctx),
		specification.FilterBy{Field: "sim_profile_id", Value: profileId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	runs := make([]*entity.SimulatorRun, len(models))
	for i, m := range models {
		runs[i] = r.mapper.SimulatorRunToEntity(m)
	}
	return runs, nil
}

func (r *SimulatorRunRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.SimulatorRun, error) {
	var m model.SimulatorRun
	if err := (specification.BySessionID{SessionID: sessionId}).Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return r.mapper.SimulatorRunToEntity(&m), nil
}
