package taskqueue

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	watermillTopic       = subjectPrefix + TypeSessionClose
	watermillPoisonTopic = watermillTopic + ".poison"
)

// WatermillQueue is the in-process queue. Failed tasks are retried with
// backoff and then parked on a poison topic that is logged.
type WatermillQueue struct {
	pubSub     *gochannel.GoChannel
	wmLogger   watermill.LoggerAdapter
	logger     Logger
	maxRetries int
	interval   time.Duration
}

func NewWatermillQueue(logger Logger, maxRetries int) *WatermillQueue {
	wmLogger := newWatermillLogger(logger)
	return &WatermillQueue{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, wmLogger),
		wmLogger:   wmLogger,
		logger:     logger,
		maxRetries: maxRetries,
		interval:   time.Second,
	}
}

// WithRetryInterval sets the initial backoff between attempts.
func (q *WatermillQueue) WithRetryInterval(d time.Duration) *WatermillQueue {
	q.interval = d
	return q
}

func (q *WatermillQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := task.Encode()
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("task_key", task.Key())
	return q.pubSub.Publish(watermillTopic, msg)
}

func (q *WatermillQueue) Run(ctx context.Context, handler Handler) error {
	router, err := message.NewRouter(message.RouterConfig{}, q.wmLogger)
	if err != nil {
		return err
	}

	poison, err := middleware.PoisonQueue(q.pubSub, watermillPoisonTopic)
	if err != nil {
		return err
	}
	router.AddMiddleware(
		poison,
		middleware.Retry{
			MaxRetries:      q.maxRetries,
			InitialInterval: q.interval,
			Multiplier:      2,
			Logger:          q.wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	router.AddNoPublisherHandler("session_close", watermillTopic, q.pubSub, func(msg *message.Message) error {
		task, err := Decode(msg.Payload)
		if err != nil {
			q.logger.Error(queueModule, "Dropping malformed task", map[string]interface{}{"error": err.Error()})
			return nil
		}
		return handler(msg.Context(), task)
	})

	router.AddNoPublisherHandler("session_close_poison", watermillPoisonTopic, q.pubSub, func(msg *message.Message) error {
		q.logger.Error(queueModule, "Task exhausted retries", map[string]interface{}{
			"task_key": msg.Metadata.Get("task_key"),
			"reason":   msg.Metadata.Get(middleware.ReasonForPoisonedKey),
		})
		return nil
	})

	return router.Run(ctx)
}

func (q *WatermillQueue) Close() error {
	return q.pubSub.Close()
}
