// ABOUTME: In-memory Medium implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject medium failures

package medium

import (
	"sync"
)

// MemoryMedium is a thread-safe in-memory Medium. It can be forced to fail
// on demand, which tests use to exercise the store's fallback path.
type MemoryMedium struct {
	mu    sync.RWMutex
	slots map[string]string

	// FailReads and FailWrites, when set, make the corresponding
	// operations return ErrForced.
	FailReads  bool
	FailWrites bool
}

// ErrForced is returned by a MemoryMedium configured to fail.
var ErrForced = errForced{}

type errForced struct{}

func (errForced) Error() string { return "medium failure (forced)" }

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{slots: make(map[string]string)}
}

// Read returns the value stored under key.
func (m *MemoryMedium) Read(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads {
		return "", false, ErrForced
	}
	value, ok := m.slots[key]
	return value, ok, nil
}

// Write stores value under key.
func (m *MemoryMedium) Write(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrForced
	}
	m.slots[key] = value
	return nil
}

// Delete removes the slot for key.
func (m *MemoryMedium) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrForced
	}
	delete(m.slots, key)
	return nil
}

// WipeAll removes every slot.
func (m *MemoryMedium) WipeAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrForced
	}
	m.slots = make(map[string]string)
	return nil
}

// Len returns the number of stored slots.
func (m *MemoryMedium) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}
