package memory

import (
	"context"
	"sort"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"

	"github.com/google/uuid"
)

type sessionRepository struct {
	store *Store
	realm realm.Realm
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.CoachingSession) error {
	return r.store.write(func(t *tables) error {
		if session.Id == uuid.Nil {
			session.Id = uuid.New()
		}
		if _, exists := t.sessions[session.Id]; exists {
			return contract.ErrDuplicate
		}
		if session.Status == "" {
			session.Status = constant.SessionStatusActive
		}
		session.CreatedAt = r.store.stamp(session.CreatedAt)
		t.sessions[session.Id] = row[entity.CoachingSession]{realm: r.realm, value: cloneSession(*session)}
		return nil
	})
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.CoachingSession) error {
	return r.store.write(func(t *tables) error {
		now := r.store.now()
		session.UpdatedAt = &now
		t.sessions[session.Id] = row[entity.CoachingSession]{realm: r.realm, value: cloneSession(*session)}
		return nil
	})
}

func (r *sessionRepository) filter(keep func(s *entity.CoachingSession) bool) []*entity.CoachingSession {
	var out []*entity.CoachingSession
	r.store.read(func(t *tables) {
		for _, rw := range t.sessions {
			if rw.realm != r.realm || !keep(&rw.value) {
				continue
			}
			s := cloneSession(rw.value)
			out = append(out, &s)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *sessionRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.CoachingSession, error) {
	found := r.filter(func(s *entity.CoachingSession) bool { return s.Id == id })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *sessionRepository) FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	found := r.filter(func(s *entity.CoachingSession) bool {
		return s.UserId == userId && s.Status == constant.SessionStatusActive
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[len(found)-1], nil
}

func (r *sessionRepository) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.CoachingSession, error) {
	return r.filter(func(s *entity.CoachingSession) bool { return s.UserId == userId }), nil
}

func (r *sessionRepository) FindRecentCompletedByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.CoachingSession, error) {
	found := r.filter(func(s *entity.CoachingSession) bool {
		return s.UserId == userId && s.Status == constant.SessionStatusCompleted
	})
	recent := make([]*entity.CoachingSession, 0, limit)
	for i := len(found) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, found[i])
	}
	return recent, nil
}

func (r *sessionRepository) FindActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.CoachingSession, error) {
	return r.filter(func(s *entity.CoachingSession) bool {
		return s.Status == constant.SessionStatusActive && s.CreatedAt.Before(cutoff)
	}), nil
}

func (r *sessionRepository) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(s *entity.CoachingSession) bool { return s.UserId == userId }))), nil
}

type messageRepository struct {
	store *Store
	realm realm.Realm
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.store.write(func(t *tables) error {
		if message.Id == uuid.Nil {
			message.Id = uuid.New()
		}
		if _, exists := t.messages[message.Id]; exists {
			return contract.ErrDuplicate
		}
		t.seq++
		message.Seq = t.seq
		message.CreatedAt = r.store.stamp(message.CreatedAt)
		t.messages[message.Id] = row[entity.Message]{realm: r.realm, value: *message}
		return nil
	})
}

// chronological returns matching messages ordered by created_at then seq.
func (r *messageRepository) chronological(keep func(m *entity.Message) bool) []*entity.Message {
	var out []*entity.Message
	r.store.read(func(t *tables) {
		for _, rw := range t.messages {
			if rw.realm != r.realm || !keep(&rw.value) {
				continue
			}
			m := rw.value
			out = append(out, &m)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (r *messageRepository) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Message, error) {
	return r.chronological(func(m *entity.Message) bool { return m.SessionId == sessionId }), nil
}

func (r *messageRepository) FindRecentBySession(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.Message, error) {
	all := r.chronological(func(m *entity.Message) bool { return m.SessionId == sessionId })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *messageRepository) CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	return int64(len(r.chronological(func(m *entity.Message) bool { return m.SessionId == sessionId }))), nil
}

func (r *messageRepository) FindLastByUser(ctx context.Context, userId uuid.UUID) (*entity.Message, error) {
	all := r.chronological(func(m *entity.Message) bool { return m.UserId == userId })
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (r *messageRepository) FindLastBySession(ctx context.Context, sessionId uuid.UUID) (*entity.Message, error) {
	all := r.chronological(func(m *entity.Message) bool { return m.SessionId == sessionId })
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (r *messageRepository) FindAllByUser(ctx context.Context, userId uuid.UUID) ([]*entity.Message, error) {
	return r.chronological(func(m *entity.Message) bool { return m.UserId == userId }), nil
}

func (r *messageRepository) ReassignSession(ctx context.Context, messageIds []uuid.UUID, sessionId uuid.UUID) error {
	return r.store.write(func(t *tables) error {
		for _, id := range messageIds {
			rw, ok := t.messages[id]
			if !ok || rw.realm != r.realm {
				continue
			}
			rw.value.SessionId = sessionId
			t.messages[id] = rw
		}
		return nil
	})
}
