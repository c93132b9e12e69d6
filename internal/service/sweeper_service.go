package service

import (
	"context"
	"errors"
	"time"

	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/repository/unitofwork"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/boundary"
	"money-coach-be/pkg/coach/closer"
)

type ISweeperService interface {
	// Run sweeps every interval until ctx is cancelled.
	Run(ctx context.Context, interval time.Duration)
	// Sweep closes idle sessions once and returns how many it closed.
	Sweep(ctx context.Context) (int, error)
}

// sweeperService closes production sessions whose user went quiet for
// longer than the session gap, so their slow path runs without waiting for
// the next message. Simulation sessions are closed by their runs.
type sweeperService struct {
	uowFactory unitofwork.RepositoryFactory
	closer     *closer.Pipeline
	logger     logger.ILogger
	now        func() time.Time
}

func NewSweeperService(uowFactory unitofwork.RepositoryFactory, closer *closer.Pipeline, logger logger.ILogger) ISweeperService {
	return &sweeperService{
		uowFactory: uowFactory,
		closer:     closer,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *sweeperService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error(logger.ModuleClose, "Idle session sweep failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (s *sweeperService) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.CoachingSessionRepository().FindActiveCreatedBefore(ctx, now.Add(-boundary.Gap))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, session := range candidates {
		last, err := uow.MessageRepository().FindLastBySession(ctx, session.Id)
		if err != nil {
			return closed, err
		}
		lastAt := session.CreatedAt
		if last != nil {
			lastAt = last.CreatedAt
		}
		if !boundary.Detect(&lastAt, now).IsNewSession {
			continue
		}

		if _, err := s.closer.Close(ctx, session.Id); err != nil {
			if errors.Is(err, coach.ErrStateConflict) {
				continue
			}
			s.logger.Error(logger.ModuleClose, "Failed to close idle session", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		closed++
	}

	if closed > 0 {
		s.logger.Info(logger.ModuleClose, "Idle sessions closed", map[string]interface{}{"count": closed})
	}
	return closed, nil
}
