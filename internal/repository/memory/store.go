package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type row[T any] struct {
	realm realm.Realm
	value T
}

type tables struct {
	sessions      map[uuid.UUID]row[entity.CoachingSession]
	messages      map[uuid.UUID]row[entity.Message]
	understanding map[uuid.UUID]row[entity.Understanding]
	onboarding    map[uuid.UUID]row[entity.OnboardingProfile]
	focusAreas    map[uuid.UUID]row[entity.FocusArea]
	reflections   map[uuid.UUID]entity.FocusAreaReflection
	suggestions   map[uuid.UUID]row[entity.SuggestionSet]
	briefings     map[uuid.UUID]row[entity.Briefing]
	cards         map[uuid.UUID]row[entity.RewireCard]
	wins          map[uuid.UUID]row[entity.Win]
	profiles      map[uuid.UUID]entity.SimProfile
	runs          map[uuid.UUID]entity.SimulatorRun
	seq           int64
}

func newTables() *tables {
	return &tables{
		sessions:      map[uuid.UUID]row[entity.CoachingSession]{},
		messages:      map[uuid.UUID]row[entity.Message]{},
		understanding: map[uuid.UUID]row[entity.Understanding]{},
		onboarding:    map[uuid.UUID]row[entity.OnboardingProfile]{},
		focusAreas:    map[uuid.UUID]row[entity.FocusArea]{},
		reflections:   map[uuid.UUID]entity.FocusAreaReflection{},
		suggestions:   map[uuid.UUID]row[entity.SuggestionSet]{},
		briefings:     map[uuid.UUID]row[entity.Briefing]{},
		cards:         map[uuid.UUID]row[entity.RewireCard]{},
		wins:          map[uuid.UUID]row[entity.Win]{},
		profiles:      map[uuid.UUID]entity.SimProfile{},
		runs:          map[uuid.UUID]entity.SimulatorRun{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (t *tables) snapshot() *tables {
	return &tables{
		sessions:      cloneMap(t.sessions),
		messages:      cloneMap(t.messages),
		understanding: cloneMap(t.understanding),
		onboarding:    cloneMap(t.onboarding),
		focusAreas:    cloneMap(t.focusAreas),
		reflections:   cloneMap(t.reflections),
		suggestions:   cloneMap(t.suggestions),
		briefings:     cloneMap(t.briefings),
		cards:         cloneMap(t.cards),
		wins:          cloneMap(t.wins),
		profiles:      cloneMap(t.profiles),
		runs:          cloneMap(t.runs),
		seq:           t.seq,
	}
}

// Store is a process-local implementation of every repository contract.
// Rows are copied on the way in and out so callers never share memory with
// the store. Transactions are serialized against each other and a rollback
// restores the state captured at Begin.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: newTables(),
		now:  time.Now,
	}
}

// WithClock overrides the timestamp source used for CreatedAt/UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

type repositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{store: store}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store, realm: realm.FromContext(ctx)}
}

type unitOfWork struct {
	store    *Store
	realm    realm.Realm
	snapshot *tables
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.snapshot != nil {
		return fmt.Errorf("transaction already started")
	}
	u.store.txMu.Lock()
	u.store.mu.RLock()
	u.snapshot = u.store.data.snapshot()
	u.store.mu.RUnlock()
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.snapshot == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.snapshot = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.snapshot == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	u.store.data = u.snapshot
	u.store.mu.Unlock()
	u.snapshot = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *unitOfWork) Realm() realm.Realm {
	return u.realm
}

func (u *unitOfWork) CoachingSessionRepository() contract.CoachingSessionRepository {
	return &sessionRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) MessageRepository() contract.MessageRepository {
	return &messageRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) UnderstandingRepository() contract.UnderstandingRepository {
	return &understandingRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) OnboardingRepository() contract.OnboardingRepository {
	return &onboardingRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) FocusAreaRepository() contract.FocusAreaRepository {
	return &focusAreaRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) SuggestionSetRepository() contract.SuggestionSetRepository {
	return &suggestionSetRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) BriefingRepository() contract.BriefingRepository {
	return &briefingRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) RewireCardRepository() contract.RewireCardRepository {
	return &rewireCardRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) WinRepository() contract.WinRepository {
	return &winRepository{store: u.store, realm: u.realm}
}

func (u *unitOfWork) SimProfileRepository() contract.SimProfileRepository {
	return &simProfileRepository{store: u.store}
}

func (u *unitOfWork) SimulatorRunRepository() contract.SimulatorRunRepository {
	return &simulatorRunRepository{store: u.store}
}
