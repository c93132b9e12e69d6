package memory

import (
	"context"
	"sort"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"

	"github.com/google/uuid"
)

type suggestionSetRepository struct {
	store *Store
	realm realm.Realm
}

func (r *suggestionSetRepository) Create(ctx context.Context, set *entity.SuggestionSet) error {
	return r.store.write(func(t *tables) error {
		if set.GeneratedAfterSessionId != nil {
			for _, rw := range t.suggestions {
				existing := rw.value.GeneratedAfterSessionId
				if existing != nil && *existing == *set.GeneratedAfterSessionId {
					return nil
				}
			}
		}
		if set.Id == uuid.Nil {
			set.Id = uuid.New()
		}
		set.CreatedAt = r.store.stamp(set.CreatedAt)
		t.suggestions[set.Id] = row[entity.SuggestionSet]{realm: r.realm, value: cloneSuggestionSet(*set)}
		return nil
	})
}

func (r *suggestionSetRepository) FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.SuggestionSet, error) {
	var latest *entity.SuggestionSet
	r.store.read(func(t *tables) {
		for _, rw := range t.suggestions {
			if rw.realm != r.realm || rw.value.UserId != userId {
				continue
			}
			if latest == nil || rw.value.CreatedAt.After(latest.CreatedAt) {
				set := cloneSuggestionSet(rw.value)
				latest = &set
			}
		}
	})
	return latest, nil
}

func (r *suggestionSetRepository) ExistsForSession(ctx context.Context, sessionId uuid.UUID) (bool, error) {
	exists := false
	r.store.read(func(t *tables) {
		for _, rw := range t.suggestions {
			id := rw.value.GeneratedAfterSessionId
			if rw.realm == r.realm && id != nil && *id == sessionId {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

type briefingRepository struct {
	store *Store
	realm realm.Realm
}

func (r *briefingRepository) Create(ctx context.Context, briefing *entity.Briefing) error {
	return r.store.write(func(t *tables) error {
		if briefing.Id == uuid.Nil {
			briefing.Id = uuid.New()
		}
		if _, exists := t.briefings[briefing.Id]; exists {
			return contract.ErrDuplicate
		}
		briefing.CreatedAt = r.store.stamp(briefing.CreatedAt)
		t.briefings[briefing.Id] = row[entity.Briefing]{realm: r.realm, value: cloneBriefing(*briefing)}
		return nil
	})
}

func (r *briefingRepository) FindLatestByUser(ctx context.Context, userId uuid.UUID) (*entity.Briefing, error) {
	var latest *entity.Briefing
	r.store.read(func(t *tables) {
		for _, rw := range t.briefings {
			if rw.realm != r.realm || rw.value.UserId != userId {
				continue
			}
			if latest == nil || !rw.value.CreatedAt.Before(latest.CreatedAt) {
				b := cloneBriefing(rw.value)
				latest = &b
			}
		}
	})
	return latest, nil
}

type rewireCardRepository struct {
	store *Store
	realm realm.Realm
}

func (r *rewireCardRepository) Create(ctx context.Context, card *entity.RewireCard) error {
	return r.store.write(func(t *tables) error {
		if card.Id == uuid.Nil {
			card.Id = uuid.New()
		}
		card.CreatedAt = r.store.stamp(card.CreatedAt)
		t.cards[card.Id] = row[entity.RewireCard]{realm: r.realm, value: *card}
		return nil
	})
}

func (r *rewireCardRepository) find(keep func(c *entity.RewireCard) bool) []*entity.RewireCard {
	var out []*entity.RewireCard
	r.store.read(func(t *tables) {
		for _, rw := range t.cards {
			if rw.realm == r.realm && keep(&rw.value) {
				c := rw.value
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *rewireCardRepository) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RewireCard, error) {
	cards := r.find(func(c *entity.RewireCard) bool { return c.UserId == userId })
	for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards, nil
}

func (r *rewireCardRepository) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.RewireCard, error) {
	return r.find(func(c *entity.RewireCard) bool {
		return c.SessionId != nil && *c.SessionId == sessionId
	}), nil
}

type winRepository struct {
	store *Store
	realm realm.Realm
}

func (r *winRepository) Create(ctx context.Context, win *entity.Win) error {
	return r.store.write(func(t *tables) error {
		if win.Id == uuid.Nil {
			win.Id = uuid.New()
		}
		win.CreatedAt = r.store.stamp(win.CreatedAt)
		t.wins[win.Id] = row[entity.Win]{realm: r.realm, value: *win}
		return nil
	})
}

func (r *winRepository) FindRecentByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Win, error) {
	var out []*entity.Win
	r.store.read(func(t *tables) {
		for _, rw := range t.wins {
			if rw.realm == r.realm && rw.value.UserId == userId {
				w := rw.value
				out = append(out, &w)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type simProfileRepository struct {
	store *Store
}

func (r *simProfileRepository) Create(ctx context.Context, profile *entity.SimProfile) error {
	return r.store.write(func(t *tables) error {
		if profile.Id == uuid.Nil {
			profile.Id = uuid.New()
		}
		if _, exists := t.profiles[profile.Id]; exists {
			return contract.ErrDuplicate
		}
		profile.CreatedAt = r.store.stamp(profile.CreatedAt)
		t.profiles[profile.Id] = *profile
		return nil
	})
}

func (r *simProfileRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.SimProfile, error) {
	var found *entity.SimProfile
	r.store.read(func(t *tables) {
		if p, ok := t.profiles[id]; ok {
			found = &p
		}
	})
	return found, nil
}

func (r *simProfileRepository) FindAll(ctx context.Context) ([]*entity.SimProfile, error) {
	var out []*entity.SimProfile
	r.store.read(func(t *tables) {
		for _, p := range t.profiles {
			p := p
			out = append(out, &p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type simulatorRunRepository struct {
	store *Store
}

func (r *simulatorRunRepository) Create(ctx context.Context, run *entity.SimulatorRun) error {
	return r.store.write(func(t *tables) error {
		if run.Id == uuid.Nil {
			run.Id = uuid.New()
		}
		for _, existing := range t.runs {
			if existing.Id == run.Id || existing.SessionId == run.SessionId {
				return contract.ErrDuplicate
			}
		}
		run.CreatedAt = r.store.stamp(run.CreatedAt)
		t.runs[run.Id] = cloneRun(*run)
		return nil
	})
}

func (r *simulatorRunRepository) Update(ctx context.Context, run *entity.SimulatorRun) error {
	return r.store.write(func(t *tables) error {
		now := r.store.now()
		run.UpdatedAt = &now
		t.runs[run.Id] = cloneRun(*run)
		return nil
	})
}

func (r *simulatorRunRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.SimulatorRun, error) {
	var found *entity.SimulatorRun
	r.store.read(func(t *tables) {
		if run, ok := t.runs[id]; ok {
			run = cloneRun(run)
			found = &run
		}
	})
	return found, nil
}

func (r *simulatorRunRepository) FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.SimulatorRun, error) {
	var out []*entity.SimulatorRun
	r.store.read(func(t *tables) {
		for _, run := range t.runs {
			if run.SimProfileId == profileId {
				run = cloneRun(run)
				out = append(out, &run)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *simulatorRunRepository) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.SimulatorRun, error) {
	var found *entity.SimulatorRun
	r.store.read(func(t *tables) {
		for _, run := range t.runs {
			if run.SessionId == sessionId {
				run = cloneRun(run)
				found = &run
				return
			}
		}
	})
	return found, nil
}
