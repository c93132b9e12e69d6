// Package coach holds the coaching engine. Subpackages implement the session
// lifecycle; this package defines the errors they share.
package coach

import "errors"

var (
	// ErrNoBriefing means no coaching plan exists and none could be produced.
	// The chat turn refuses instead of improvising.
	ErrNoBriefing = errors.New("no briefing available")

	ErrNotFound = errors.New("not found")

	// ErrStateConflict rejects operations on terminal runs or completed sessions.
	ErrStateConflict = errors.New("state conflict")

	ErrInvalidInput = errors.New("invalid input")
)
