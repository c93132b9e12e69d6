package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MessageHandler processes one message body. A returned error triggers a
// delayed redelivery until MaxDeliver is reached.
type MessageHandler func(ctx context.Context, data []byte) error

type SubscribeOptions struct {
	Stream     string
	Subject    string
	Durable    string
	MaxDeliver int
	AckWait    time.Duration
	// MaxAckPending of 1 gives strictly sequential processing.
	MaxAckPending int
	// OnGiveUp is called when the last delivery attempt fails.
	OnGiveUp func(data []byte, err error)
}

// Subscriber handles listening for messages from NATS.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a durable consumer and processes messages until ctx
// is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, opts SubscribeOptions, handler MessageHandler) error {
	if opts.AckWait == 0 {
		opts.AckWait = 5 * time.Minute
	}
	if opts.MaxAckPending == 0 {
		opts.MaxAckPending = 1
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, opts.Stream, jetstream.ConsumerConfig{
		Durable:       opts.Durable,
		FilterSubject: opts.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       opts.AckWait,
		MaxDeliver:    opts.MaxDeliver,
		MaxAckPending: opts.MaxAckPending,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		err := handler(ctx, msg.Data())
		if err == nil {
			_ = msg.Ack()
			return
		}

		attempt := uint64(1)
		if meta, metaErr := msg.Metadata(); metaErr == nil {
			attempt = meta.NumDelivered
		}
		if opts.MaxDeliver > 0 && attempt >= uint64(opts.MaxDeliver) {
			if opts.OnGiveUp != nil {
				opts.OnGiveUp(msg.Data(), err)
			}
			_ = msg.Term()
			return
		}
		_ = msg.NakWithDelay(time.Duration(attempt) * 2 * time.Second)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	log.Printf("Subscribed to %s with durable %s", opts.Subject, opts.Durable)

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()
	return nil
}

// Close closes the connection.
func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
