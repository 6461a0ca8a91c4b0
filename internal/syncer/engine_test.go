// ABOUTME: Tests for the sync engine's debounce, throttle, and session lifecycle
// ABOUTME: Uses a manual clock and the fake gateway for fully deterministic cycles

package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/companion-sync/internal/domain"
	"github.com/2389/companion-sync/internal/events"
	"github.com/2389/companion-sync/internal/gateway"
	"github.com/2389/companion-sync/internal/medium"
	"github.com/2389/companion-sync/internal/store"
)

type harness struct {
	engine *Engine
	store  *store.ScopedStore
	bus    *events.Bus
	gw     *gateway.Fake
	clock  *manualClock
}

func setupEngine(t *testing.T) *harness {
	t.Helper()
	st := store.New(medium.NewMemoryMedium(), medium.NewMemoryMedium(), store.NewSessionTracker())
	bus := events.NewBus(nil)
	gw := gateway.NewFake()
	clock := newManualClock()
	engine := New(Options{
		Store:   st,
		Gateway: gw,
		Bus:     bus,
		Clock:   clock,
	})
	t.Cleanup(engine.Close)
	return &harness{engine: engine, store: st, bus: bus, gw: gw, clock: clock}
}

// startQuiet starts a session and drains the initial post-login push so
// individual tests observe only the calls they trigger.
func (h *harness) startQuiet(t *testing.T, uid string) {
	t.Helper()
	h.engine.StartSession(context.Background(), uid)
	h.clock.Advance(10 * time.Second)
	h.gw.Reset()
}

func countCalls(calls []string, label string) int {
	n := 0
	for _, c := range calls {
		if c == label {
			n++
		}
	}
	return n
}

func TestEngine_DebounceCoalescesBurst(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")

	// Four rapid changes inside the debounce window
	for i := 0; i < 3; i++ {
		h.bus.Publish(events.KindProfileUpdated, nil)
		h.clock.Advance(200 * time.Millisecond)
	}
	h.bus.Publish(events.KindProfileUpdated, nil)

	// 999ms after the last change: still pending
	h.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, countCalls(h.gw.Calls(), "upsert:profile"))
	assert.Equal(t, StatePendingDebounce, h.engine.State())

	// Window elapses: exactly one push for the whole burst
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))
	assert.Equal(t, StateIdle, h.engine.State())
}

func TestEngine_MinIntervalThrottles(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")

	h.bus.Publish(events.KindProfileUpdated, nil)
	h.clock.Advance(time.Second)
	require.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))

	// A change right after the cycle: its debounce fires inside the
	// 3s floor and is dropped.
	h.bus.Publish(events.KindProfileUpdated, nil)
	h.clock.Advance(time.Second)
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))
	assert.Equal(t, StateIdle, h.engine.State())

	// A later change whose debounce lands past the floor goes through.
	h.clock.Advance(1500 * time.Millisecond)
	h.bus.Publish(events.KindProfileUpdated, nil)
	h.clock.Advance(time.Second)
	assert.Equal(t, 2, countCalls(h.gw.Calls(), "upsert:profile"))
}

func TestEngine_SyncNowBypassesDebounceAndFloor(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")

	h.bus.Publish(events.KindProfileUpdated, nil)
	rep := h.engine.SyncNow(context.Background())
	require.NotNil(t, rep)
	assert.True(t, rep.OK())
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))

	// The pending debounce was absorbed; nothing more fires.
	h.clock.Advance(5 * time.Second)
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))

	// Back-to-back manual syncs ignore the floor.
	rep = h.engine.SyncNow(context.Background())
	require.NotNil(t, rep)
	assert.Equal(t, 2, countCalls(h.gw.Calls(), "upsert:profile"))
}

func TestEngine_SyncNowWithoutSession(t *testing.T) {
	h := setupEngine(t)
	assert.Nil(t, h.engine.SyncNow(context.Background()))
	assert.Equal(t, 0, h.gw.CallCount())
}

func TestEngine_EndSessionCancelsPendingPush(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")

	h.bus.Publish(events.KindProfileUpdated, nil)
	h.engine.EndSession()

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, 0, h.gw.CallCount())
	assert.Equal(t, StateIdle, h.engine.State())
}

func TestEngine_ChangesIgnoredWhileAnonymous(t *testing.T) {
	h := setupEngine(t)

	h.bus.Publish(events.KindProfileUpdated, nil)
	h.clock.Advance(10 * time.Second)

	assert.Equal(t, 0, h.gw.CallCount())
}

func TestEngine_PushPartialFailureIsolated(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")
	h.store.SetFor(store.KeyChatSettings, domain.DefaultSettings(), "u1")
	h.store.SetFor(store.KeyChallengeBadges, []domain.Badge{{ID: "b1", Name: "First", Unlocked: true}}, "u1")

	boom := errors.New("badge service down")
	h.gw.FailDomain(domain.DomainBadges, boom)

	rep := h.engine.SyncNow(context.Background())
	require.NotNil(t, rep)
	assert.False(t, rep.OK())
	assert.ErrorIs(t, rep.Err(domain.DomainBadges), boom)
	assert.NoError(t, rep.Err(domain.DomainProfile))
	assert.NoError(t, rep.Err(domain.DomainSettings))

	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:settings"))
}

func TestEngine_PushSkipsAbsentDomains(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyChatSettings, domain.DefaultSettings(), "u1")

	rep := h.engine.SyncNow(context.Background())
	require.NotNil(t, rep)
	assert.True(t, rep.OK())
	assert.Equal(t, 0, countCalls(h.gw.Calls(), "upsert:profile"))
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:settings"))
}

func TestEngine_PushProfileUsesSavedInterests(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")

	profile := domain.DefaultProfile()
	profile.Interests = []string{"stale"}
	h.store.SetFor(store.KeyUserProfile, profile, "u1")
	h.store.SetFor(store.KeyProfileInterests, []string{"hiking", "chess"}, "u1")

	rep := h.engine.SyncNow(context.Background())
	require.True(t, rep.OK())

	recs := h.gw.Records(domain.DomainProfile, "u1")
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"hiking", "chess"}, recs[0]["interests"])
}

func TestEngine_PushBadgesFullReplace(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyChallengeBadges, []domain.Badge{
		{ID: "b1", Name: "First", Unlocked: true},
		{ID: "b2", Name: "Second", Unlocked: false},
	}, "u1")

	rep := h.engine.SyncNow(context.Background())
	require.True(t, rep.OK())

	calls := h.gw.Calls()
	assert.Equal(t, 1, countCalls(calls, "delete_all:badges"))
	assert.Equal(t, 2, countCalls(calls, "upsert:badges"))
}

func TestEngine_PushGoalsFullReplace(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyChallengeGoals, []domain.Goal{
		{ID: "g1", Text: "walk", Completed: true},
		{ID: "g2", Text: "read"},
	}, "u1")

	require.NoError(t, h.engine.PushGoals(context.Background()))

	calls := h.gw.Calls()
	assert.Equal(t, 1, countCalls(calls, "delete_all:goals"))
	assert.Equal(t, 2, countCalls(calls, "upsert:goals"))
}

func TestEngine_PushMoodHistoryDedupesByDay(t *testing.T) {
	h := setupEngine(t)
	h.startQuiet(t, "u1")

	h.gw.Seed(domain.DomainMoodHistory, "u1", gateway.Record{
		"recorded_at": "2025-05-30T08:00:00Z",
		"mood":        "calm",
	})
	h.store.SetFor(store.KeyMoodHistory, []domain.MoodEntry{
		{Date: "2025-05-31T09:00:00Z", Mood: "happy"},
		{Date: "2025-05-30T20:00:00Z", Mood: "tired"}, // same day as remote
	}, "u1")

	require.NoError(t, h.engine.PushMoodHistory(context.Background()))

	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:mood_history"))
	assert.Equal(t, 0, countCalls(h.gw.Calls(), "delete_all:mood_history"))
}

func TestEngine_StartSessionPullsAndDefaults(t *testing.T) {
	h := setupEngine(t)
	h.gw.Seed(domain.DomainProfile, "u1", gateway.Record{
		"username": "Riley",
		"user_age": 30,
		// no interests column: defaults must fill in
	})

	var loaded []events.Kind
	h.bus.Subscribe(events.KindProfileLoaded, func(ev events.Event) {
		loaded = append(loaded, ev.Kind)
	})

	rep := h.engine.StartSession(context.Background(), "u1")
	require.NotNil(t, rep)
	assert.Equal(t, PhasePull, rep.Phase)
	assert.True(t, rep.OK())

	got := store.GetFor(h.store, store.KeyUserProfile, domain.DefaultProfile(), "u1")
	assert.Equal(t, "Riley", got.Name)
	assert.NotNil(t, got.Interests)
	assert.Empty(t, got.Interests)
	assert.Equal(t, []events.Kind{events.KindProfileLoaded}, loaded)
}

func TestEngine_PullAbsentKeepsLocal(t *testing.T) {
	h := setupEngine(t)
	local := domain.DefaultProfile()
	local.Name = "offline-name"
	h.store.SetFor(store.KeyUserProfile, local, "u1")

	rep := h.engine.StartSession(context.Background(), "u1")
	require.True(t, rep.OK())

	got := store.GetFor(h.store, store.KeyUserProfile, domain.DefaultProfile(), "u1")
	assert.Equal(t, "offline-name", got.Name)
}

func TestEngine_PullPartialFailureIsolated(t *testing.T) {
	h := setupEngine(t)
	h.gw.Seed(domain.DomainSettings, "u1", gateway.Record{"ai_name": "Nova"})
	h.gw.FailDomain(domain.DomainGoals, errors.New("goals table offline"))

	rep := h.engine.StartSession(context.Background(), "u1")
	require.NotNil(t, rep)
	assert.False(t, rep.OK())
	assert.Error(t, rep.Err(domain.DomainGoals))
	assert.NoError(t, rep.Err(domain.DomainSettings))

	got := store.GetFor(h.store, store.KeyChatSettings, domain.DefaultSettings(), "u1")
	assert.Equal(t, "Nova", got.AIName)
}

func TestEngine_PullMoodHistoryTruncatesToLimit(t *testing.T) {
	h := setupEngine(t)
	recs := make([]gateway.Record, domain.MoodHistoryLimit+10)
	for i := range recs {
		recs[i] = gateway.Record{
			"recorded_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i).Format(time.RFC3339),
			"mood":        "ok",
		}
	}
	h.gw.Seed(domain.DomainMoodHistory, "u1", recs...)

	rep := h.engine.StartSession(context.Background(), "u1")
	require.True(t, rep.OK())

	history := store.GetFor(h.store, store.KeyMoodHistory, []domain.MoodEntry(nil), "u1")
	assert.Len(t, history, domain.MoodHistoryLimit)
}

func TestEngine_StartSessionMigratesAnonymousData(t *testing.T) {
	h := setupEngine(t)
	h.store.Set(store.KeyChallengeGoals, []domain.Goal{{ID: "g1", Text: "stretch"}})

	h.engine.StartSession(context.Background(), "u1")

	goals := store.GetFor(h.store, store.KeyChallengeGoals, []domain.Goal(nil), "u1")
	require.Len(t, goals, 1)
	assert.Equal(t, "g1", goals[0].ID)
}

func TestEngine_StartSessionSchedulesInitialPush(t *testing.T) {
	h := setupEngine(t)
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")

	h.engine.StartSession(context.Background(), "u1")
	require.Equal(t, 0, countCalls(h.gw.Calls(), "upsert:profile"))

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, countCalls(h.gw.Calls(), "upsert:profile"))
}

func TestEngine_StalePullDiscardedAfterSessionChange(t *testing.T) {
	h := setupEngine(t)
	h.gw.Seed(domain.DomainProfile, "u1", gateway.Record{"name": "Riley"})

	h.engine.StartSession(context.Background(), "u1")
	_, epoch := h.store.Sessions().Snapshot()
	h.engine.EndSession()
	h.store.RemoveFor(store.KeyUserProfile, "u1")

	// Simulates a fetch that completed after the session ended: the
	// stale epoch makes the commit a no-op.
	require.NoError(t, h.engine.pullProfile(context.Background(), "u1", epoch))

	_, ok := store.Lookup[domain.Profile](h.store, store.KeyUserProfile, "u1")
	assert.False(t, ok)
}

func TestEngine_ReportAccessors(t *testing.T) {
	h := setupEngine(t)
	assert.Nil(t, h.engine.LastReport())
	assert.True(t, h.engine.LastSyncAt().IsZero())

	h.startQuiet(t, "u1")
	h.store.SetFor(store.KeyUserProfile, domain.DefaultProfile(), "u1")
	h.engine.SyncNow(context.Background())

	rep := h.engine.LastReport()
	require.NotNil(t, rep)
	assert.Equal(t, PhasePush, rep.Phase)
	assert.False(t, h.engine.LastSyncAt().IsZero())
}
