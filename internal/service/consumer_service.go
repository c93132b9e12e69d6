package service

import (
	"context"

	"money-coach-be/internal/pkg/logger"
	"money-coach-be/pkg/taskqueue"
)

type IConsumerService interface {
	// Consume blocks, running queued tasks until ctx is cancelled.
	Consume(ctx context.Context) error
}

// TaskRunner executes the slow path of a closed session.
type TaskRunner interface {
	RunBackground(ctx context.Context, task taskqueue.Task) error
}

type consumerService struct {
	queue  taskqueue.Queue
	runner TaskRunner
	logger logger.ILogger
}

func NewConsumerService(queue taskqueue.Queue, runner TaskRunner, logger logger.ILogger) IConsumerService {
	return &consumerService{
		queue:  queue,
		runner: runner,
		logger: logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	cs.logger.Info(logger.ModuleQueue, "Task consumer started", nil)
	return cs.queue.Run(ctx, cs.processTask)
}

// processTask returns an error only when a retry could help.
func (cs *consumerService) processTask(ctx context.Context, task taskqueue.Task) error {
	details := map[string]interface{}{
		"type":       task.Type,
		"session_id": task.SessionId.String(),
		"realm":      task.Realm,
	}

	switch task.Type {
	case taskqueue.TypeSessionClose:
		if err := cs.runner.RunBackground(ctx, task); err != nil {
			details["error"] = err.Error()
			cs.logger.Warn(logger.ModuleQueue, "Session close task failed, will retry", details)
			return err
		}
		cs.logger.Info(logger.ModuleQueue, "Session close task done", details)
		return nil
	default:
		cs.logger.Error(logger.ModuleQueue, "Unknown task type, dropping", details)
		return nil
	}
}
