package coach

import (
	"fmt"

	"money-coach-be/internal/pkg/realm"

	"github.com/google/uuid"
)

// SessionLockKey serializes turns and closing of one session.
func SessionLockKey(r realm.Realm, sessionId uuid.UUID) string {
	return fmt.Sprintf("session:%s:%s", r, sessionId)
}

// UserLockKey serializes understanding writes of one user.
func UserLockKey(r realm.Realm, userId uuid.UUID) string {
	return fmt.Sprintf("evolve:%s:%s", r, userId)
}

// OpenLockKey serializes picking or opening the session a user's next
// message lands in.
func OpenLockKey(r realm.Realm, userId uuid.UUID) string {
	return fmt.Sprintf("open:%s:%s", r, userId)
}
