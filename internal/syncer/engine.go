// ABOUTME: Debounced push/pull sync engine between the scoped store and the remote gateway
// ABOUTME: Owns the Idle/PendingDebounce/Syncing state machine and session lifecycle

package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/companion-sync/internal/events"
	"github.com/2389/companion-sync/internal/gateway"
	"github.com/2389/companion-sync/internal/store"
)

// State is the engine's scheduling state.
type State int

const (
	// StateIdle means no sync is pending or running.
	StateIdle State = iota
	// StatePendingDebounce means a change arrived and the debounce timer
	// is counting down.
	StatePendingDebounce
	// StateSyncing means a push cycle is in flight.
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingDebounce:
		return "pending_debounce"
	case StateSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Config holds the engine's timing knobs.
type Config struct {
	// Debounce is how long the engine waits after the last change event
	// before pushing. Every new change restarts the countdown.
	Debounce time.Duration

	// MinInterval is the minimum gap between completed sync cycles.
	// A debounce that fires inside the gap is dropped; the next change
	// starts a fresh countdown.
	MinInterval time.Duration
}

// DefaultConfig returns the standard timing: 1s debounce, 3s floor.
func DefaultConfig() Config {
	return Config{
		Debounce:    time.Second,
		MinInterval: 3 * time.Second,
	}
}

// changeKinds are the bus events that schedule a debounced push.
var changeKinds = []events.Kind{
	events.KindProfileUpdated,
	events.KindSettingsUpdated,
	events.KindGoalCompleted,
	events.KindMoodUpdated,
	events.KindBadgeUnlocked,
	events.KindStorage,
}

// Options configures a new Engine. Store, Gateway and Bus are required;
// the rest default sensibly.
type Options struct {
	Store   *store.ScopedStore
	Gateway gateway.Gateway
	Bus     *events.Bus
	Clock   Clock
	Config  Config
	Logger  *slog.Logger
}

// Engine coordinates local-first persistence with the remote backend.
// Writes land locally first; the engine batches the resulting change
// events and pushes them after a debounce window, subject to a minimum
// interval between cycles. Pulls happen once per session start.
type Engine struct {
	store    *store.ScopedStore
	sessions *store.SessionTracker
	gw       gateway.Gateway
	bus      *events.Bus
	clock    Clock
	cfg      Config
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	timer      Timer
	userID     string
	epoch      uint64
	lastSync   time.Time
	lastReport *Report

	unsubscribe []func()
}

// New builds an Engine and subscribes it to the change events on the bus.
// The engine stays dormant until StartSession.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultConfig().MinInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		store:    opts.Store,
		sessions: opts.Store.Sessions(),
		gw:       opts.Gateway,
		bus:      opts.Bus,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With("component", "syncer"),
	}
	for _, kind := range changeKinds {
		e.unsubscribe = append(e.unsubscribe, opts.Bus.Subscribe(kind, e.onChange))
	}
	return e
}

// State returns the current scheduling state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastReport returns a copy of the most recent cycle's outcome, or nil
// if no cycle has run yet.
func (e *Engine) LastReport() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReport.clone()
}

// LastSyncAt returns when the last push cycle completed. The zero time
// means no push has completed yet.
func (e *Engine) LastSyncAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// StartSession activates sync for userID. It migrates any anonymous
// local data into the user's scope, pulls every domain from the remote,
// and schedules an initial debounced push so local-only state reaches
// the backend shortly after login. The returned report describes the
// pull.
func (e *Engine) StartSession(ctx context.Context, userID string) *Report {
	e.sessions.Set(userID)
	uid, epoch := e.sessions.Snapshot()

	e.mu.Lock()
	e.cancelTimerLocked()
	e.userID = uid
	e.epoch = epoch
	e.state = StateIdle
	e.mu.Unlock()

	e.logger.Info("session started", "user_id", uid)
	e.store.MigrateAllToUser(uid)

	rep := e.pull(ctx, uid, epoch)
	e.mu.Lock()
	e.lastReport = rep
	e.mu.Unlock()

	e.scheduleDebounce()
	return rep
}

// EndSession deactivates sync. Any pending debounce is cancelled, the
// session tracker reverts to the anonymous scope, and in-flight pulls
// for the old session discard their results. A push already in flight
// runs to completion.
func (e *Engine) EndSession() {
	e.mu.Lock()
	e.cancelTimerLocked()
	e.userID = store.AnonymousUser
	e.state = StateIdle
	e.mu.Unlock()

	e.sessions.Set(store.AnonymousUser)
	e.logger.Info("session ended")
}

// SyncNow runs a push cycle immediately, bypassing both the debounce
// window and the minimum interval. Any pending debounce is absorbed into
// this cycle. Returns nil when no session is active.
func (e *Engine) SyncNow(ctx context.Context) *Report {
	e.mu.Lock()
	if e.userID == store.AnonymousUser {
		e.mu.Unlock()
		return nil
	}
	e.cancelTimerLocked()
	uid := e.userID
	e.state = StateSyncing
	e.mu.Unlock()

	rep := e.push(ctx, uid)
	e.finishCycle(rep)
	return rep
}

// Close unsubscribes the engine from the bus and cancels any pending
// timer. The engine must not be used afterwards.
func (e *Engine) Close() {
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil

	e.mu.Lock()
	e.cancelTimerLocked()
	e.state = StateIdle
	e.mu.Unlock()
}

// onChange handles a data-change event from the bus. Each event restarts
// the debounce countdown so a burst of writes collapses into one push.
func (e *Engine) onChange(events.Event) {
	e.scheduleDebounce()
}

func (e *Engine) scheduleDebounce() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.userID == store.AnonymousUser {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	epoch := e.epoch
	e.timer = e.clock.AfterFunc(e.cfg.Debounce, func() {
		e.debounceFired(epoch)
	})
	if e.state == StateIdle {
		e.state = StatePendingDebounce
	}
}

// debounceFired runs when the debounce window elapses with no further
// changes. The epoch pins the callback to the session that scheduled it.
func (e *Engine) debounceFired(epoch uint64) {
	e.mu.Lock()
	if !e.sessions.Valid(epoch) || e.userID == store.AnonymousUser {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	if since := e.clock.Now().Sub(e.lastSync); !e.lastSync.IsZero() && since < e.cfg.MinInterval {
		e.state = StateIdle
		e.logger.Debug("push throttled", "since_last", since)
		e.mu.Unlock()
		return
	}
	uid := e.userID
	e.state = StateSyncing
	e.mu.Unlock()

	rep := e.push(context.Background(), uid)
	e.finishCycle(rep)
}

// finishCycle records the push outcome. The timestamp advances on partial
// failure too: a cycle ran, and the throttle measures cycles, not
// successes.
func (e *Engine) finishCycle(rep *Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSync = e.clock.Now()
	e.lastReport = rep
	if e.userID == store.AnonymousUser {
		e.state = StateIdle
	} else if e.timer != nil {
		e.state = StatePendingDebounce
	} else {
		e.state = StateIdle
	}
}

func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
