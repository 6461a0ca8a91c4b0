// ABOUTME: Logical key namespace for locally persisted data
// ABOUTME: These names form the on-disk schema and must stay stable

package store

// Logical keys. When a user is active they are physically stored as
// "user_<userId>::<key>"; anonymous data uses the bare key.
const (
	KeyUserProfile      = "user_profile"
	KeyChatSettings     = "chat_settings"
	KeyChallengeGoals   = "challenge_goals"
	KeyChallengeBadges  = "challenge_badges"
	KeyMoodHistory      = "mood_history"
	KeyProfileInterests = "profile_interests"
	KeyDisplayBadgeID   = "display_badge_id"
)

// migratableKeys is the full set moved from the anonymous scope into a
// user's scope on first login.
var migratableKeys = []string{
	KeyMoodHistory,
	KeyChallengeGoals,
	KeyChallengeBadges,
	KeyUserProfile,
	KeyProfileInterests,
	KeyDisplayBadgeID,
	KeyChatSettings,
}
