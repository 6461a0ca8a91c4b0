// ABOUTME: Session tracker holding the active user identity for key scoping
// ABOUTME: Single writer, many readers; store calls resolve it at call time

package store

import "sync"

// AnonymousUser is the empty user id, meaning keys resolve unscoped.
const AnonymousUser = ""

// SessionTracker holds the active user id. It has exactly one writer (the
// auth-state observer) and many readers: every store call without an
// explicit user resolves the tracker at call time, not at bind time.
//
// Epoch increments on every change so long-running operations can detect
// that the session they started under is gone before committing results.
type SessionTracker struct {
	mu     sync.RWMutex
	userID string
	epoch  uint64
}

// NewSessionTracker creates a tracker with no active user.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{}
}

// Set records the active user id (AnonymousUser to clear) and advances
// the epoch.
func (t *SessionTracker) Set(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = userID
	t.epoch++
}

// Current returns the active user id, or AnonymousUser.
func (t *SessionTracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userID
}

// Snapshot returns the active user id together with the epoch it was
// observed at.
func (t *SessionTracker) Snapshot() (string, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userID, t.epoch
}

// Valid reports whether the given epoch is still the current one.
func (t *SessionTracker) Valid(epoch uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch == epoch
}
