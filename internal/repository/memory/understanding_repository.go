package memory

import (
	"context"
	"slices"
	"sort"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/realm"

	"github.com/google/uuid"
)

type understandingRepository struct {
	store *Store
	realm realm.Realm
}

func (r *understandingRepository) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error) {
	var found *entity.Understanding
	r.store.read(func(t *tables) {
		for _, rw := range t.understanding {
			if rw.realm == r.realm && rw.value.UserId == userId {
				u := rw.value
				found = &u
				return
			}
		}
	})
	return found, nil
}

// FindByUserForUpdate relies on Begin serializing transactions.
func (r *understandingRepository) FindByUserForUpdate(ctx context.Context, userId uuid.UUID) (*entity.Understanding, error) {
	return r.FindByUser(ctx, userId)
}

func (r *understandingRepository) Upsert(ctx context.Context, understanding *entity.Understanding) error {
	return r.store.write(func(t *tables) error {
		now := r.store.now()
		for id, rw := range t.understanding {
			if rw.realm == r.realm && rw.value.UserId == understanding.UserId {
				understanding.Id = id
				understanding.CreatedAt = rw.value.CreatedAt
				understanding.UpdatedAt = &now
				t.understanding[id] = row[entity.Understanding]{realm: r.realm, value: *understanding}
				return nil
			}
		}
		if understanding.Id == uuid.Nil {
			understanding.Id = uuid.New()
		}
		understanding.CreatedAt = r.store.stamp(understanding.CreatedAt)
		understanding.UpdatedAt = &now
		t.understanding[understanding.Id] = row[entity.Understanding]{realm: r.realm, value: *understanding}
		return nil
	})
}

type onboardingRepository struct {
	store *Store
	realm realm.Realm
}

func (r *onboardingRepository) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.OnboardingProfile, error) {
	var found *entity.OnboardingProfile
	r.store.read(func(t *tables) {
		for _, rw := range t.onboarding {
			if rw.realm == r.realm && rw.value.UserId == userId {
				o := cloneOnboarding(rw.value)
				found = &o
				return
			}
		}
	})
	return found, nil
}

func (r *onboardingRepository) Upsert(ctx context.Context, profile *entity.OnboardingProfile) error {
	return r.store.write(func(t *tables) error {
		for id, rw := range t.onboarding {
			if rw.realm == r.realm && rw.value.UserId == profile.UserId {
				profile.Id = id
				profile.CreatedAt = rw.value.CreatedAt
				t.onboarding[id] = row[entity.OnboardingProfile]{realm: r.realm, value: cloneOnboarding(*profile)}
				return nil
			}
		}
		if profile.Id == uuid.Nil {
			profile.Id = uuid.New()
		}
		profile.CreatedAt = r.store.stamp(profile.CreatedAt)
		t.onboarding[profile.Id] = row[entity.OnboardingProfile]{realm: r.realm, value: cloneOnboarding(*profile)}
		return nil
	})
}

type focusAreaRepository struct {
	store *Store
	realm realm.Realm
}

func (r *focusAreaRepository) Create(ctx context.Context, focusArea *entity.FocusArea) error {
	return r.store.write(func(t *tables) error {
		if focusArea.Id == uuid.Nil {
			focusArea.Id = uuid.New()
		}
		focusArea.CreatedAt = r.store.stamp(focusArea.CreatedAt)
		focusArea.Reflections = nil
		t.focusAreas[focusArea.Id] = row[entity.FocusArea]{realm: r.realm, value: *focusArea}
		return nil
	})
}

func (r *focusAreaRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return r.store.write(func(t *tables) error {
		rw, ok := t.focusAreas[id]
		if !ok || rw.realm != r.realm || rw.value.ArchivedAt != nil {
			return nil
		}
		now := r.store.now()
		rw.value.ArchivedAt = &now
		t.focusAreas[id] = rw
		return nil
	})
}

func (r *focusAreaRepository) find(keep func(f *entity.FocusArea) bool) []*entity.FocusArea {
	var out []*entity.FocusArea
	r.store.read(func(t *tables) {
		for _, rw := range t.focusAreas {
			if rw.realm != r.realm || !keep(&rw.value) {
				continue
			}
			area := rw.value
			area.Reflections = nil
			for _, reflection := range t.reflections {
				if reflection.FocusAreaId == area.Id {
					area.Reflections = append(area.Reflections, reflection)
				}
			}
			sort.Slice(area.Reflections, func(i, j int) bool {
				a, b := area.Reflections[i], area.Reflections[j]
				if !a.Date.Equal(b.Date) {
					return a.Date.Before(b.Date)
				}
				return a.CreatedAt.Before(b.CreatedAt)
			})
			out = append(out, &area)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *focusAreaRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.FocusArea, error) {
	found := r.find(func(f *entity.FocusArea) bool { return f.Id == id })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *focusAreaRepository) FindActiveByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error) {
	return r.find(func(f *entity.FocusArea) bool {
		return f.UserId == userId && f.ArchivedAt == nil
	}), nil
}

func (r *focusAreaRepository) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.FocusArea, error) {
	return r.find(func(f *entity.FocusArea) bool { return f.UserId == userId }), nil
}

func (r *focusAreaRepository) AppendReflections(ctx context.Context, reflections []*entity.FocusAreaReflection) error {
	return r.store.write(func(t *tables) error {
		for _, reflection := range reflections {
			duplicate := slices.ContainsFunc(mapValues(t.reflections), func(existing entity.FocusAreaReflection) bool {
				return existing.FocusAreaId == reflection.FocusAreaId &&
					existing.SessionId == reflection.SessionId &&
					existing.Text == reflection.Text
			})
			if duplicate {
				continue
			}
			if reflection.Id == uuid.Nil {
				reflection.Id = uuid.New()
			}
			reflection.CreatedAt = r.store.stamp(reflection.CreatedAt)
			t.reflections[reflection.Id] = *reflection
		}
		return nil
	})
}

func (r *focusAreaRepository) ResetReflections(ctx context.Context, userId uuid.UUID) error {
	return r.store.write(func(t *tables) error {
		for id, reflection := range t.reflections {
			area, ok := t.focusAreas[reflection.FocusAreaId]
			if ok && area.realm == r.realm && area.value.UserId == userId {
				delete(t.reflections, id)
			}
		}
		return nil
	})
}

func mapValues[K comparable, V any](m map[K]V) []V {
	values := make([]V, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return values
}
