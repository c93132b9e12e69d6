package service

import (
	"context"

	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/pkg/coach/backfill"

	"github.com/google/uuid"
)

const (
	JobBackfill = "backfill"
	JobSplit    = "split"
)

type IBackfillService interface {
	// Replay rebuilds userId's coaching state, streaming progress to watcherId.
	Replay(ctx context.Context, watcherId, userId uuid.UUID) (*dto.BackfillResponse, error)
	// Split regroups userId's messages into sessions.
	Split(ctx context.Context, watcherId, userId uuid.UUID) (*dto.SplitResponse, error)
}

type backfillService struct {
	replayer *backfill.Replayer
	splitter *backfill.Splitter
	sender   EventSender
	logger   logger.ILogger
}

func NewBackfillService(replayer *backfill.Replayer, splitter *backfill.Splitter, sender EventSender, logger logger.ILogger) IBackfillService {
	return &backfillService{
		replayer: replayer,
		splitter: splitter,
		sender:   sender,
		logger:   logger,
	}
}

func (s *backfillService) progress(job string, watcherId, userId uuid.UUID) func(backfill.Progress) {
	return func(p backfill.Progress) {
		frame := dto.ProgressFrame{
			Job:       job,
			UserId:    userId,
			Stage:     p.Stage,
			SessionId: p.SessionId,
			Index:     p.Index,
			Total:     p.Total,
		}
		if p.Err != nil {
			frame.Error = p.Err.Error()
		}
		if watcherId != uuid.Nil {
			s.sender.SendEvent(watcherId, EventBackfillProgress, frame)
		}
	}
}

func (s *backfillService) Replay(ctx context.Context, watcherId, userId uuid.UUID) (*dto.BackfillResponse, error) {
	result, err := s.replayer.Replay(ctx, userId, s.progress(JobBackfill, watcherId, userId))
	if err != nil {
		s.logger.Error(logger.ModuleBackfill, "Backfill aborted", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, err
	}

	res := &dto.BackfillResponse{
		UserId:            userId,
		SessionsProcessed: result.SessionsProcessed,
		Failed:            result.Failed,
		Understanding:     toUnderstandingResponse(result.FinalUnderstanding),
	}
	if watcherId != uuid.Nil {
		s.sender.SendEvent(watcherId, EventBackfillDone, res)
	}
	return res, nil
}

func (s *backfillService) Split(ctx context.Context, watcherId, userId uuid.UUID) (*dto.SplitResponse, error) {
	result, err := s.splitter.Split(ctx, userId, s.progress(JobSplit, watcherId, userId))
	if err != nil {
		return nil, err
	}

	res := &dto.SplitResponse{
		UserId:  userId,
		Groups:  result.Groups,
		Created: result.Created,
		Emptied: result.Emptied,
	}
	if watcherId != uuid.Nil {
		s.sender.SendEvent(watcherId, EventSplitDone, res)
	}
	return res, nil
}
