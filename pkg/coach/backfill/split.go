package backfill

import (
	"context"
	"fmt"
	"maps"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/boundary"
	"money-coach-be/pkg/coach/notes"
	"money-coach-be/pkg/lock"

	"github.com/google/uuid"
)

type SplitResult struct {
	Groups  int
	Created int
	Emptied int
}

// Splitter regroups a user's message history into sessions using the same
// inactivity gap as live chat. It is meant to run before Replay on imported
// or legacy data.
type Splitter struct {
	factory unitofwork.RepositoryFactory
	locker  lock.Locker
	logger  logger.ILogger
}

func NewSplitter(factory unitofwork.RepositoryFactory, locker lock.Locker, logger logger.ILogger) *Splitter {
	return &Splitter{factory: factory, locker: locker, logger: logger}
}

// Group cuts a chronological message list wherever the gap to the previous
// message crosses the session boundary.
func Group(messages []*entity.Message) [][]*entity.Message {
	var groups [][]*entity.Message
	var last *time.Time
	for _, m := range messages {
		if boundary.Detect(last, m.CreatedAt).IsNewSession {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], m)
		t := m.CreatedAt
		last = &t
	}
	return groups
}

// Split moves messages into one completed session per group. Groups that
// already match a session exactly are left alone, as are groups touching the
// active session. Sessions left without messages are marked failed, and
// completed sessions left with part of their transcript get fresh notes.
func (s *Splitter) Split(ctx context.Context, userId uuid.UUID, onProgress func(Progress)) (*SplitResult, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	uow := s.factory.NewUnitOfWork(ctx)
	unlock, err := s.locker.Lock(ctx, coach.UserLockKey(uow.Realm(), userId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	messages, err := uow.MessageRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	sessions, err := uow.CoachingSessionRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.CoachingSession, len(sessions))
	sizes := make(map[uuid.UUID]int, len(sessions))
	for _, sess := range sessions {
		byId[sess.Id] = sess
	}
	for _, m := range messages {
		sizes[m.SessionId]++
	}

	original := maps.Clone(sizes)

	groups := Group(messages)
	res := &SplitResult{Groups: len(groups)}
	for i, group := range groups {
		if s.keep(group, byId, original) {
			continue
		}
		created, err := s.regroup(ctx, userId, group)
		onProgress(Progress{Stage: "split", SessionId: created, Index: i + 1, Total: len(groups), Err: err})
		if err != nil {
			return res, err
		}
		for _, m := range group {
			sizes[m.SessionId]--
		}
		res.Created++
	}

	for _, sess := range sessions {
		if sess.Status != constant.SessionStatusCompleted || original[sess.Id] == 0 {
			continue
		}
		if left := sizes[sess.Id]; left > 0 {
			if left == original[sess.Id] {
				continue
			}
			if err := s.renote(ctx, uow, sess); err != nil {
				return res, err
			}
			continue
		}
		sess.Status = constant.SessionStatusFailed
		sess.Title = "Merged into regrouped sessions"
		if err := uow.CoachingSessionRepository().Update(ctx, sess); err != nil {
			return res, err
		}
		res.Emptied++
	}

	s.logger.Info(logger.ModuleBackfill, "Session split completed", map[string]interface{}{
		"user_id": userId.String(),
		"groups":  res.Groups,
		"created": res.Created,
		"emptied": res.Emptied,
	})
	return res, nil
}

// keep compares against the session sizes before any regrouping, so a group
// only stays put when it is the whole of one session.
func (s *Splitter) keep(group []*entity.Message, byId map[uuid.UUID]*entity.CoachingSession, original map[uuid.UUID]int) bool {
	first := group[0].SessionId
	same := true
	for _, m := range group {
		if sess, ok := byId[m.SessionId]; ok && sess.Status == constant.SessionStatusActive {
			return true
		}
		if m.SessionId != first {
			same = false
		}
	}
	return same && original[first] == len(group)
}

// renote rebuilds the notes of a session that kept only part of its messages.
func (s *Splitter) renote(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.CoachingSession) error {
	remaining, err := uow.MessageRepository().FindBySession(ctx, sess.Id)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		sess.CreatedAt = remaining[0].CreatedAt
	}
	sess.Notes = notes.Fallback(sess, remaining)
	sess.Title = sess.Notes.Headline
	return uow.CoachingSessionRepository().Update(ctx, sess)
}

func (s *Splitter) regroup(ctx context.Context, userId uuid.UUID, group []*entity.Message) (uuid.UUID, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	defer uow.Rollback()

	start := group[0].CreatedAt
	end := group[len(group)-1].CreatedAt
	session := &entity.CoachingSession{
		Id:          uuid.New(),
		UserId:      userId,
		Status:      constant.SessionStatusCompleted,
		CreatedAt:   start,
		CompletedAt: &end,
	}
	session.Notes = notes.Fallback(session, group)
	session.Title = session.Notes.Headline
	if err := uow.CoachingSessionRepository().Create(ctx, session); err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	ids := make([]uuid.UUID, len(group))
	for i, m := range group {
		ids[i] = m.Id
	}
	if err := uow.MessageRepository().ReassignSession(ctx, ids, session.Id); err != nil {
		return uuid.Nil, fmt.Errorf("reassign messages: %w", err)
	}
	return session.Id, uow.Commit()
}
