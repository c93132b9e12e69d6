package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.messages = append(l.messages, message)
}

func TestPublisher_FansOutAndLogsFailures(t *testing.T) {
	ok := &recordingSink{}
	broken := &recordingSink{err: errors.New("nats down")}
	log := &recordingLogger{}

	p := NewPublisher(log, ok, nil, broken)
	p.PublishSessionClosed(context.Background(), uuid.New(), uuid.New(), "production", "Rent anxiety")

	require.Len(t, ok.events, 1)
	assert.Equal(t, SessionClosed, ok.events[0].EventType())
	assert.Equal(t, "Rent anxiety", ok.events[0].Payload()["headline"])
	assert.Len(t, broken.events, 1)
	assert.Len(t, log.messages, 1)
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.PublishBackfillCompleted(context.Background(), uuid.New(), "production", 3, 0)
	})
}
