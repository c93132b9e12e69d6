package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"money-coach-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher handles sending events and tasks to NATS JetStream.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher connects and makes sure the given streams exist.
// Each stream name maps to its subject filter.
func NewPublisher(url string, streams map[string]string) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	for name, subject := range streams {
		if err := EnsureStream(context.Background(), js, name, subject); err != nil {
			// Don't fail hard here, maybe it already exists or NATS isn't ready
			log.Printf("Warn: %v", err)
		}
	}

	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends a domain event on events.<TYPE>.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(events.Envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return p.PublishData(ctx, fmt.Sprintf("events.%s", event.EventType()), data, "")
}

// PublishData publishes raw bytes. A non-empty msgID enables JetStream
// de-duplication within the stream window.
func (p *Publisher) PublishData(ctx context.Context, subject string, data []byte, msgID string) error {
	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	if _, err := p.js.Publish(ctx, subject, data, opts...); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
