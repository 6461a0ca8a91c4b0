// ABOUTME: User-scoped key/value store over a primary medium with fallback
// ABOUTME: Medium failures are logged and routed around, never surfaced to callers

package store

import (
	"encoding/json"
	"log/slog"

	"github.com/2389/companion-sync/internal/medium"
)

// ScopedStore persists JSON-serialized values under per-user keys. Reads
// and writes go to the primary medium; when it fails they transparently
// use the fallback medium instead (never both, to avoid divergence).
type ScopedStore struct {
	primary  medium.Medium
	fallback medium.Medium
	sessions *SessionTracker
	logger   *slog.Logger
}

// New creates a store over the given media, scoping keys by the tracker's
// current user.
func New(primary, fallback medium.Medium, sessions *SessionTracker) *ScopedStore {
	return &ScopedStore{
		primary:  primary,
		fallback: fallback,
		sessions: sessions,
		logger:   slog.Default().With("component", "store"),
	}
}

// Sessions returns the tracker this store scopes against.
func (s *ScopedStore) Sessions() *SessionTracker {
	return s.sessions
}

// ScopedKey returns the physical key for logicalKey under userID.
// Anonymous keys pass through unscoped.
func ScopedKey(logicalKey, userID string) string {
	if userID == AnonymousUser {
		return logicalKey
	}
	return "user_" + userID + "::" + logicalKey
}

// Get reads logicalKey in the current session's scope, returning def when
// the slot is absent or unparseable.
func Get[T any](s *ScopedStore, logicalKey string, def T) T {
	return GetFor(s, logicalKey, def, s.sessions.Current())
}

// GetFor reads logicalKey in userID's scope (AnonymousUser for the
// unscoped slot).
func GetFor[T any](s *ScopedStore, logicalKey string, def T, userID string) T {
	if v, ok := Lookup[T](s, logicalKey, userID); ok {
		return v
	}
	return def
}

// Lookup reads logicalKey in userID's scope and reports whether a
// parseable value was present.
func Lookup[T any](s *ScopedStore, logicalKey, userID string) (T, bool) {
	var zero T
	raw, ok := s.readRaw(ScopedKey(logicalKey, userID))
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("stored value unparseable, treating as absent",
			"key", logicalKey, "error", err)
		return zero, false
	}
	return v, true
}

// Set serializes value and writes it in the current session's scope.
// Callers are responsible for publishing a change event afterwards; the
// store stays decoupled from the event bus.
func (s *ScopedStore) Set(logicalKey string, value any) {
	s.SetFor(logicalKey, value, s.sessions.Current())
}

// SetFor serializes value and writes it in userID's scope.
func (s *ScopedStore) SetFor(logicalKey string, value any, userID string) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to serialize value", "key", logicalKey, "error", err)
		return
	}
	s.writeRaw(ScopedKey(logicalKey, userID), string(data))
}

// Remove deletes logicalKey in the current session's scope.
func (s *ScopedStore) Remove(logicalKey string) {
	s.RemoveFor(logicalKey, s.sessions.Current())
}

// RemoveFor deletes logicalKey in userID's scope.
func (s *ScopedStore) RemoveFor(logicalKey, userID string) {
	key := ScopedKey(logicalKey, userID)
	if err := s.primary.Delete(key); err != nil {
		s.logger.Warn("primary medium delete failed, using fallback", "key", key, "error", err)
		if err := s.fallback.Delete(key); err != nil {
			s.logger.Error("fallback medium delete failed", "key", key, "error", err)
		}
	}
}

// Clear wipes all slots in the active medium. The fallback medium is only
// wiped when the primary is unavailable; clear is used on full logout and
// reset flows where the platform resets the fallback too.
func (s *ScopedStore) Clear() {
	if err := s.primary.WipeAll(); err != nil {
		s.logger.Warn("primary medium wipe failed, wiping fallback", "error", err)
		if err := s.fallback.WipeAll(); err != nil {
			s.logger.Error("fallback medium wipe failed", "error", err)
		}
	}
}

// MigrateToUser moves the anonymous slot for logicalKey into userID's
// scope and deletes the anonymous slot. Idempotent: with no intervening
// anonymous write, a second call finds the anonymous slot empty and does
// nothing.
func (s *ScopedStore) MigrateToUser(logicalKey, userID string) {
	raw, ok := s.readRaw(ScopedKey(logicalKey, AnonymousUser))
	if !ok {
		return
	}
	s.writeRaw(ScopedKey(logicalKey, userID), raw)
	s.RemoveFor(logicalKey, AnonymousUser)
}

// MigrateAllToUser migrates the full set of app keys from the anonymous
// scope into userID's scope. Called once when a user session begins.
func (s *ScopedStore) MigrateAllToUser(userID string) {
	for _, key := range migratableKeys {
		s.MigrateToUser(key, userID)
	}
}

// readRaw reads a physical key, falling back to the secondary medium when
// the primary fails. Absence is reported as ok=false.
func (s *ScopedStore) readRaw(key string) (string, bool) {
	value, ok, err := s.primary.Read(key)
	if err == nil {
		return value, ok
	}
	s.logger.Warn("primary medium read failed, using fallback", "key", key, "error", err)

	value, ok, err = s.fallback.Read(key)
	if err != nil {
		s.logger.Error("fallback medium read failed", "key", key, "error", err)
		return "", false
	}
	return value, ok
}

// writeRaw writes a physical key to the primary medium, or to the
// fallback when the primary fails. The write is lost only if both fail.
func (s *ScopedStore) writeRaw(key, value string) {
	err := s.primary.Write(key, value)
	if err == nil {
		return
	}
	s.logger.Warn("primary medium write failed, using fallback", "key", key, "error", err)

	if err := s.fallback.Write(key, value); err != nil {
		s.logger.Error("fallback medium write failed, value lost", "key", key, "error", err)
	}
}
