// ABOUTME: Synchronous fan-out event bus for semantic data-change notifications
// ABOUTME: Listeners are invoked in registration order; events carry no payload authority

package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names a semantic change event. The names are part of the
// cross-component contract and must stay stable.
type Kind string

const (
	KindProfileUpdated  Kind = "profile-updated"
	KindSettingsUpdated Kind = "settings-updated"
	KindGoalCompleted   Kind = "goal-completed"
	KindMoodUpdated     Kind = "mood-updated"
	KindBadgeUnlocked   Kind = "badge-unlocked"
	KindStorage         Kind = "storage"

	// Loader-completion events published after a pull writes fresh data
	KindProfileLoaded Kind = "profile-loaded"
	KindGoalsLoaded   Kind = "goals-loaded"
	KindBadgesLoaded  Kind = "badges-loaded"
)

// Event is a fire-and-forget notification. The store is the source of
// truth; a missed event loses no data. Duplicate events for one logical
// change are allowed, so handlers must be idempotent.
type Event struct {
	Kind   Kind
	At     time.Time
	Detail any
}

// Handler receives published events synchronously on the publisher's
// goroutine.
type Handler func(Event)

// subscription pairs a handler with its registration id.
type subscription struct {
	id      string
	handler Handler
}

// Bus is an in-process publish/subscribe channel with explicit lifecycle.
// Publish fans out synchronously to the listeners registered at publish
// time, in registration order, with no delivery guarantee beyond that.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	closed bool
	logger *slog.Logger
}

// NewBus creates a bus. Pass nil logger for the default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Kind][]subscription),
		logger: logger.With("component", "events"),
	}
}

// Subscribe registers handler for events of the given kind and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	id := uuid.New().String()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "kind", string(kind), "sub_id", id)

	return func() { b.unsubscribe(kind, id) }
}

// Publish invokes every currently-registered handler for kind, in
// registration order, on the caller's goroutine. Detail may be nil.
func (b *Bus) Publish(kind Kind, detail any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	// Snapshot so handlers can subscribe/unsubscribe without deadlocking
	subs := make([]subscription, len(b.subs[kind]))
	copy(subs, b.subs[kind])
	b.mu.RUnlock()

	event := Event{Kind: kind, At: time.Now(), Detail: detail}
	for _, sub := range subs {
		sub.handler(event)
	}
}

// unsubscribe removes the subscription with the given id.
func (b *Bus) unsubscribe(kind Kind, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[kind] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[kind]) == 0 {
		delete(b.subs, kind)
	}
}

// Close drops all subscriptions; subsequent publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Kind][]subscription)
}
