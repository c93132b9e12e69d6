package simulator

import (
	"context"
	"fmt"
	"strings"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/pkg/coach"

	"github.com/google/uuid"
)

type ProfileInput struct {
	Name          string
	PersonaPrompt string
	// CloneFromUserId copies a real user's coaching state into the
	// simulation realm under the new profile.
	CloneFromUserId *uuid.UUID
}

// CreateProfile stores a synthetic user. The profile id is also the user id
// of its simulation rows.
func (e *Engine) CreateProfile(ctx context.Context, in ProfileInput) (*entity.SimProfile, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.PersonaPrompt) == "" {
		return nil, fmt.Errorf("%w: name and persona are required", coach.ErrInvalidInput)
	}
	profile := &entity.SimProfile{
		Id:               uuid.New(),
		Name:             strings.TrimSpace(in.Name),
		PersonaPrompt:    in.PersonaPrompt,
		ClonedFromUserId: in.CloneFromUserId,
	}

	if in.CloneFromUserId != nil {
		if err := e.cloneUser(ctx, *in.CloneFromUserId, profile.Id); err != nil {
			return nil, err
		}
	}
	if err := e.factory.NewUnitOfWork(ctx).SimProfileRepository().Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	e.logger.Info(logger.ModuleSimulator, "Simulator profile created", map[string]interface{}{
		"profile_id": profile.Id.String(),
		"cloned":     in.CloneFromUserId != nil,
	})
	return profile, nil
}

// cloneUser copies understanding, onboarding, active focus areas and the
// latest briefing of a production user to the simulation realm.
func (e *Engine) cloneUser(ctx context.Context, sourceId, targetId uuid.UUID) error {
	src := e.factory.NewUnitOfWork(realm.WithRealm(ctx, realm.Production))
	u, err := src.UnderstandingRepository().FindByUser(ctx, sourceId)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: user %s has no understanding to clone", coach.ErrNotFound, sourceId)
	}
	onboarding, err := src.OnboardingRepository().FindByUser(ctx, sourceId)
	if err != nil {
		return err
	}
	areas, err := src.FocusAreaRepository().FindActiveByUser(ctx, sourceId)
	if err != nil {
		return err
	}
	b, err := src.BriefingRepository().FindLatestByUser(ctx, sourceId)
	if err != nil {
		return err
	}

	simCtx := simulation(ctx)
	dst := e.factory.NewUnitOfWork(simCtx)
	if err := dst.Begin(simCtx); err != nil {
		return err
	}
	defer dst.Rollback()

	if err := dst.UnderstandingRepository().Upsert(simCtx, &entity.Understanding{
		Id:                   uuid.New(),
		UserId:               targetId,
		Narrative:            u.Narrative,
		Snippet:              u.Snippet,
		StageOfChange:        u.StageOfChange,
		TensionType:          u.TensionType,
		SecondaryTensionType: u.SecondaryTensionType,
	}); err != nil {
		return err
	}
	if onboarding != nil {
		if err := dst.OnboardingRepository().Upsert(simCtx, &entity.OnboardingProfile{
			Id:      uuid.New(),
			UserId:  targetId,
			Answers: onboarding.Answers,
			Goals:   onboarding.Goals,
		}); err != nil {
			return err
		}
	}
	for _, a := range areas {
		if err := dst.FocusAreaRepository().Create(simCtx, &entity.FocusArea{
			Id:     uuid.New(),
			UserId: targetId,
			Text:   a.Text,
			Source: a.Source,
		}); err != nil {
			return err
		}
	}
	if b != nil {
		clone := *b
		clone.Id = uuid.New()
		clone.UserId = targetId
		clone.CreatedAt = b.CreatedAt
		if err := dst.BriefingRepository().Create(simCtx, &clone); err != nil {
			return err
		}
	}
	return dst.Commit()
}

func (e *Engine) ListProfiles(ctx context.Context) ([]*entity.SimProfile, error) {
	return e.factory.NewUnitOfWork(ctx).SimProfileRepository().FindAll(ctx)
}

// ResetProfile fails any open run of the profile, leaving history intact.
func (e *Engine) ResetProfile(ctx context.Context, profileId uuid.UUID) error {
	ctx = simulation(ctx)
	uow := e.factory.NewUnitOfWork(ctx)
	profile, err := uow.SimProfileRepository().FindById(ctx, profileId)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("%w: profile %s", coach.ErrNotFound, profileId)
	}
	return e.failStale(ctx, uow, profile.Id)
}
