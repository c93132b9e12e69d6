// Package taskqueue carries durable background work. Delivery is at least
// once, so handlers must be idempotent.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	TypeSessionClose = "session.close"

	subjectPrefix = "tasks."
)

// Task is the unit of background work.
type Task struct {
	Type      string    `json:"type"`
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	Realm     string    `json:"realm"`
}

// Key identifies the task for de-duplication.
func (t Task) Key() string {
	return fmt.Sprintf("%s:%s:%s", t.Type, t.Realm, t.SessionId)
}

func (t Task) Subject() string {
	return subjectPrefix + t.Type
}

func (t Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

func Decode(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if t.Type == "" || t.SessionId == uuid.Nil {
		return Task{}, fmt.Errorf("decode task: missing type or session id")
	}
	return t, nil
}

type Handler func(ctx context.Context, task Task) error

// Queue accepts tasks and runs a handler over them one at a time.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Run blocks, feeding tasks to handler until ctx is cancelled.
	Run(ctx context.Context, handler Handler) error
	Close() error
}

// Logger is the slice of the application logger the queues need.
type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}
