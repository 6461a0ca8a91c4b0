// ABOUTME: Pull-cycle implementation: remote state down into the scoped store
// ABOUTME: Each domain pulls independently; absent remote data keeps local defaults

package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/2389/companion-sync/internal/domain"
	"github.com/2389/companion-sync/internal/events"
	"github.com/2389/companion-sync/internal/gateway"
	"github.com/2389/companion-sync/internal/store"
)

// pull fetches every domain for uid and overwrites local state with the
// remote copy. Domains pull concurrently and fail independently. The
// epoch guards the commit: if the session changed while a fetch was in
// flight, the result is discarded instead of written into the wrong
// scope.
func (e *Engine) pull(ctx context.Context, uid string, epoch uint64) *Report {
	rep := &Report{
		Phase:     PhasePull,
		StartedAt: e.clock.Now(),
		Errors:    make(map[domain.Domain]error),
	}

	type result struct {
		domain domain.Domain
		err    error
	}
	tasks := []struct {
		domain domain.Domain
		run    func(context.Context, string, uint64) error
	}{
		{domain.DomainProfile, e.pullProfile},
		{domain.DomainSettings, e.pullSettings},
		{domain.DomainBadges, e.pullBadges},
		{domain.DomainGoals, e.pullGoals},
		{domain.DomainMoodHistory, e.pullMoodHistory},
	}

	results := make(chan result, len(tasks))
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- result{task.domain, task.run(ctx, uid, epoch)}
		}()
	}
	wg.Wait()
	close(results)

	for r := range results {
		rep.Errors[r.domain] = r.err
		if r.err != nil {
			e.logger.Warn("pull failed", "domain", r.domain, "error", r.err)
		}
	}
	rep.FinishedAt = e.clock.Now()
	e.logger.Debug("pull cycle complete", "user_id", uid, "ok", rep.OK())
	return rep
}

// pullProfile loads the remote profile row. Missing columns fall back to
// defaults so a partial row never produces a half-zeroed profile.
func (e *Engine) pullProfile(ctx context.Context, uid string, epoch uint64) error {
	rec, err := e.gw.FetchOne(ctx, domain.DomainProfile, uid)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	profile := domain.ProfileFromRemote(rec)
	if !e.sessions.Valid(epoch) {
		return nil
	}
	e.store.SetFor(store.KeyUserProfile, profile, uid)
	if len(profile.Interests) > 0 {
		e.store.SetFor(store.KeyProfileInterests, profile.Interests, uid)
	}
	e.bus.Publish(events.KindProfileLoaded, nil)
	e.bus.Publish(events.KindStorage, nil)
	return nil
}

func (e *Engine) pullSettings(ctx context.Context, uid string, epoch uint64) error {
	rec, err := e.gw.FetchOne(ctx, domain.DomainSettings, uid)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	settings := domain.SettingsFromRemote(rec)
	if !e.sessions.Valid(epoch) {
		return nil
	}
	e.store.SetFor(store.KeyChatSettings, settings, uid)
	return nil
}

func (e *Engine) pullBadges(ctx context.Context, uid string, epoch uint64) error {
	recs, err := e.gw.FetchMany(ctx, domain.DomainBadges, uid)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	badges := make([]domain.Badge, 0, len(recs))
	for _, rec := range recs {
		badges = append(badges, domain.BadgeFromRemote(rec))
	}
	if !e.sessions.Valid(epoch) {
		return nil
	}
	e.store.SetFor(store.KeyChallengeBadges, badges, uid)
	e.bus.Publish(events.KindBadgesLoaded, nil)
	e.bus.Publish(events.KindStorage, nil)
	return nil
}

func (e *Engine) pullGoals(ctx context.Context, uid string, epoch uint64) error {
	recs, err := e.gw.FetchMany(ctx, domain.DomainGoals, uid)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	goals := make([]domain.Goal, 0, len(recs))
	for _, rec := range recs {
		goals = append(goals, domain.GoalFromRemote(rec))
	}
	if !e.sessions.Valid(epoch) {
		return nil
	}
	e.store.SetFor(store.KeyChallengeGoals, goals, uid)
	e.bus.Publish(events.KindGoalsLoaded, nil)
	e.bus.Publish(events.KindStorage, nil)
	return nil
}

// pullMoodHistory overwrites local mood history with the remote copy,
// bounded to the local retention limit. The remote returns newest first,
// matching local ordering.
func (e *Engine) pullMoodHistory(ctx context.Context, uid string, epoch uint64) error {
	recs, err := e.gw.FetchMany(ctx, domain.DomainMoodHistory, uid)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	if len(recs) > domain.MoodHistoryLimit {
		recs = recs[:domain.MoodHistoryLimit]
	}
	history := make([]domain.MoodEntry, 0, len(recs))
	for _, rec := range recs {
		history = append(history, domain.MoodEntryFromRemote(rec))
	}
	if !e.sessions.Valid(epoch) {
		return nil
	}
	e.store.SetFor(store.KeyMoodHistory, history, uid)
	return nil
}
