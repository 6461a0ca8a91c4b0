// ABOUTME: Mood history ordering and eviction rules
// ABOUTME: Newest-first bounded sequence capped at MoodHistoryLimit entries

package domain

import "time"

// MoodHistoryLimit caps the locally-stored mood history. Insertion past the
// cap evicts from the tail (the oldest entries).
const MoodHistoryLimit = 50

// RecordMood prepends entry to history (newest first) and truncates to
// MoodHistoryLimit. The input slice is not modified.
func RecordMood(history []MoodEntry, entry MoodEntry) []MoodEntry {
	out := make([]MoodEntry, 0, len(history)+1)
	out = append(out, entry)
	out = append(out, history...)
	if len(out) > MoodHistoryLimit {
		out = out[:MoodHistoryLimit]
	}
	return out
}

// Day returns the entry's calendar day in UTC ("2006-01-02"). Remote mood
// dedup compares days, not exact timestamps. Unparseable dates fall back to
// the raw string so malformed entries still dedup against themselves.
func (e MoodEntry) Day() string {
	ts, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		return e.Date
	}
	return ts.UTC().Format("2006-01-02")
}
