package taskqueue

import (
	"context"

	pkgNats "money-coach-be/pkg/nats"
)

// NatsQueue keeps tasks in a JetStream work-queue stream so they survive
// restarts. MaxAckPending of one keeps processing sequential.
type NatsQueue struct {
	publisher  *pkgNats.Publisher
	subscriber *pkgNats.Subscriber
	logger     Logger
	maxDeliver int
}

func NewNatsQueue(url string, logger Logger, maxRetries int) (*NatsQueue, error) {
	publisher, err := pkgNats.NewPublisher(url, map[string]string{
		pkgNats.TasksStream: subjectPrefix + ">",
	})
	if err != nil {
		return nil, err
	}
	subscriber, err := pkgNats.NewSubscriber(url)
	if err != nil {
		publisher.Close()
		return nil, err
	}
	return &NatsQueue{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
		maxDeliver: maxRetries + 1,
	}, nil
}

func (q *NatsQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := task.Encode()
	if err != nil {
		return err
	}
	return q.publisher.PublishData(ctx, task.Subject(), payload, task.Key())
}

func (q *NatsQueue) Run(ctx context.Context, handler Handler) error {
	err := q.subscriber.Subscribe(ctx, pkgNats.SubscribeOptions{
		Stream:     pkgNats.TasksStream,
		Subject:    subjectPrefix + TypeSessionClose,
		Durable:    "session-close-worker",
		MaxDeliver: q.maxDeliver,
		OnGiveUp: func(data []byte, err error) {
			q.logger.Error(queueModule, "Task exhausted retries", map[string]interface{}{
				"payload": string(data),
				"error":   err.Error(),
			})
		},
	}, func(ctx context.Context, data []byte) error {
		task, err := Decode(data)
		if err != nil {
			q.logger.Error(queueModule, "Dropping malformed task", map[string]interface{}{"error": err.Error()})
			return nil
		}
		return handler(ctx, task)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Publisher exposes the underlying connection so domain events can share it.
func (q *NatsQueue) Publisher() *pkgNats.Publisher {
	return q.publisher
}

func (q *NatsQueue) Close() error {
	q.subscriber.Close()
	q.publisher.Close()
	return nil
}
