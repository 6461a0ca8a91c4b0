// ABOUTME: Push-cycle implementation: local state out to the remote backend
// ABOUTME: Core cycle covers profile/settings/badges; goals and mood push on demand

package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/2389/companion-sync/internal/domain"
	"github.com/2389/companion-sync/internal/store"
)

// push runs one push cycle for uid. The three core domains run
// concurrently and fail independently; one domain's error never blocks
// the others.
func (e *Engine) push(ctx context.Context, uid string) *Report {
	rep := &Report{
		Phase:     PhasePush,
		StartedAt: e.clock.Now(),
		Errors:    make(map[domain.Domain]error),
	}

	type result struct {
		domain domain.Domain
		err    error
	}
	tasks := []struct {
		domain domain.Domain
		run    func(context.Context, string) error
	}{
		{domain.DomainProfile, e.pushProfile},
		{domain.DomainSettings, e.pushSettings},
		{domain.DomainBadges, e.pushBadges},
	}

	results := make(chan result, len(tasks))
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- result{task.domain, task.run(ctx, uid)}
		}()
	}
	wg.Wait()
	close(results)

	for r := range results {
		rep.Errors[r.domain] = r.err
		if r.err != nil {
			e.logger.Warn("push failed", "domain", r.domain, "error", r.err)
		}
	}
	rep.FinishedAt = e.clock.Now()
	e.logger.Debug("push cycle complete", "user_id", uid, "ok", rep.OK())
	return rep
}

// pushProfile uploads the local profile. Interests saved separately
// under their own key take precedence over the profile's embedded copy.
func (e *Engine) pushProfile(ctx context.Context, uid string) error {
	profile, ok := store.Lookup[domain.Profile](e.store, store.KeyUserProfile, uid)
	if !ok {
		return nil
	}
	var interests []string
	if saved, ok := store.Lookup[[]string](e.store, store.KeyProfileInterests, uid); ok {
		interests = saved
	}
	rec := domain.RemoteProfile(profile, interests, uid, e.clock.Now())
	return e.gw.Upsert(ctx, domain.DomainProfile, uid, rec)
}

func (e *Engine) pushSettings(ctx context.Context, uid string) error {
	settings, ok := store.Lookup[domain.Settings](e.store, store.KeyChatSettings, uid)
	if !ok {
		return nil
	}
	rec := domain.RemoteSettings(settings, uid, e.clock.Now())
	return e.gw.Upsert(ctx, domain.DomainSettings, uid, rec)
}

// pushBadges replaces the user's remote badge set with the local one.
// Badges only ever unlock, so last-writer-wins replacement is safe.
func (e *Engine) pushBadges(ctx context.Context, uid string) error {
	badges, ok := store.Lookup[[]domain.Badge](e.store, store.KeyChallengeBadges, uid)
	if !ok {
		return nil
	}
	if err := e.gw.DeleteAll(ctx, domain.DomainBadges, uid); err != nil {
		return fmt.Errorf("clearing remote badges: %w", err)
	}
	now := e.clock.Now()
	for _, badge := range badges {
		if err := e.gw.Upsert(ctx, domain.DomainBadges, uid, domain.RemoteBadge(badge, uid, now)); err != nil {
			return fmt.Errorf("badge %s: %w", badge.ID, err)
		}
	}
	return nil
}

// PushGoals replaces the remote goal list with the local one. Goals
// change rarely enough that the app pushes them explicitly rather than
// through the debounced cycle.
func (e *Engine) PushGoals(ctx context.Context) error {
	uid := e.currentUser()
	if uid == store.AnonymousUser {
		return nil
	}
	goals, ok := store.Lookup[[]domain.Goal](e.store, store.KeyChallengeGoals, uid)
	if !ok {
		return nil
	}
	if err := e.gw.DeleteAll(ctx, domain.DomainGoals, uid); err != nil {
		return fmt.Errorf("clearing remote goals: %w", err)
	}
	now := e.clock.Now()
	for _, goal := range goals {
		if err := e.gw.Upsert(ctx, domain.DomainGoals, uid, domain.RemoteGoal(goal, uid, now)); err != nil {
			return fmt.Errorf("goal %s: %w", goal.ID, err)
		}
	}
	return nil
}

// PushMoodHistory uploads mood entries the remote does not have yet.
// Mood history only accumulates: entries are deduplicated by calendar
// day and nothing remote is ever deleted.
func (e *Engine) PushMoodHistory(ctx context.Context) error {
	uid := e.currentUser()
	if uid == store.AnonymousUser {
		return nil
	}
	history, ok := store.Lookup[[]domain.MoodEntry](e.store, store.KeyMoodHistory, uid)
	if !ok || len(history) == 0 {
		return nil
	}

	remote, err := e.gw.FetchMany(ctx, domain.DomainMoodHistory, uid)
	if err != nil {
		return fmt.Errorf("fetching remote mood history: %w", err)
	}
	seen := make(map[string]bool, len(remote))
	for _, rec := range remote {
		seen[domain.MoodEntryFromRemote(rec).Day()] = true
	}

	for _, entry := range history {
		day := entry.Day()
		if seen[day] {
			continue
		}
		if err := e.gw.Upsert(ctx, domain.DomainMoodHistory, uid, domain.RemoteMoodEntry(entry, uid)); err != nil {
			return fmt.Errorf("mood entry %s: %w", day, err)
		}
		seen[day] = true
	}
	return nil
}

func (e *Engine) currentUser() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}
