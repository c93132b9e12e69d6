// Package boundary decides when a message starts a new coaching session.
package boundary

import (
	"math"
	"time"
)

// GapHours is the inactivity gap that ends a session. It is the single
// threshold used by chat, the idle sweeper, and session splitting.
const GapHours = 12

// Gap is GapHours as a duration.
const Gap = GapHours * time.Hour

type Result struct {
	IsNewSession          bool    `json:"is_new_session"`
	HoursSinceLastMessage float64 `json:"hours_since_last_message"`
}

// Detect reports whether a message at now starts a new session given the
// timestamp of the previous message. A nil timestamp always starts one.
func Detect(lastMessageAt *time.Time, now time.Time) Result {
	if lastMessageAt == nil {
		return Result{IsNewSession: true, HoursSinceLastMessage: math.Inf(1)}
	}
	hours := now.Sub(*lastMessageAt).Hours()
	return Result{
		IsNewSession:          hours > GapHours,
		HoursSinceLastMessage: hours,
	}
}
