package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sink delivers an event somewhere (NATS, websocket hub, ...).
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// ErrorLogger is the slice of the application logger the publisher needs.
type ErrorLogger interface {
	Error(module, message string, details map[string]interface{})
}

// Publisher emits coaching domain events. Publishing is best effort:
// failures are logged and never returned to the caller.
type Publisher struct {
	sinks  []Sink
	logger ErrorLogger
}

func NewPublisher(logger ErrorLogger, sinks ...Sink) *Publisher {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &Publisher{sinks: live, logger: logger}
}

func (p *Publisher) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if p == nil || len(p.sinks) == 0 {
		return
	}
	evt := BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, evt); err != nil && p.logger != nil {
			p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (p *Publisher) PublishSessionClosed(ctx context.Context, userId, sessionId uuid.UUID, realm, headline string) {
	p.emit(ctx, SessionClosed, map[string]interface{}{
		"user_id":     userId.String(),
		"session_id":  sessionId.String(),
		"realm":       realm,
		"headline":    headline,
		"entity_type": "session",
		"entity_id":   sessionId.String(),
	})
}

func (p *Publisher) PublishUnderstandingEvolved(ctx context.Context, userId, sessionId uuid.UUID, realm, stage string) {
	p.emit(ctx, UnderstandingEvolved, map[string]interface{}{
		"user_id":         userId.String(),
		"session_id":      sessionId.String(),
		"realm":           realm,
		"stage_of_change": stage,
		"entity_type":     "understanding",
		"entity_id":       userId.String(),
	})
}

func (p *Publisher) PublishSimulatorRunFinished(ctx context.Context, runId, profileId uuid.UUID, status, stopReason string) {
	p.emit(ctx, SimulatorRunFinished, map[string]interface{}{
		"run_id":      runId.String(),
		"profile_id":  profileId.String(),
		"user_id":     profileId.String(),
		"status":      status,
		"stop_reason": stopReason,
		"entity_type": "simulator_run",
		"entity_id":   runId.String(),
	})
}

func (p *Publisher) PublishBackfillCompleted(ctx context.Context, userId uuid.UUID, realm string, sessions, failed int) {
	p.emit(ctx, BackfillCompleted, map[string]interface{}{
		"user_id":     userId.String(),
		"realm":       realm,
		"sessions":    sessions,
		"failed":      failed,
		"entity_type": "user",
		"entity_id":   userId.String(),
	})
}
