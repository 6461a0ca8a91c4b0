// ABOUTME: Remote schema mapping between domain records and backend rows
// ABOUTME: Every remote->local conversion fills absent fields from domain defaults

package domain

import "time"

// Record is one remote row, as decoded JSON.
type Record = map[string]any

// RemoteProfile maps a Profile to the profiles table row for userID.
// interests overrides Profile.Interests when non-nil (the app keeps a
// separate interests slot that wins over the embedded profile value).
func RemoteProfile(p Profile, interests []string, userID string, now time.Time) Record {
	if interests == nil {
		interests = p.Interests
	}
	return Record{
		"id":                  userID,
		"username":            p.Name,
		"user_age":            p.Age,
		"user_pronouns":       p.Pronouns,
		"pref_time":           p.PrefTime,
		"mbti":                p.MBTI,
		"interests":           interests,
		"goals":               p.Goals,
		"challenges":          p.Challenges,
		"current_mood":        p.CurrentMood,
		"communication_style": p.CommunicationStyle,
		"motivational_style":  p.MotivationalStyle,
		"conversation_count":  p.ConversationCount,
		"last_chat_date":      p.LastChatDate,
		"relationship_level":  p.RelationshipLevel,
		"updated_at":          now.UTC().Format(time.RFC3339),
	}
}

// ProfileFromRemote maps a profiles row to a Profile, defaulting every
// absent field.
func ProfileFromRemote(rec Record) Profile {
	p := DefaultProfile()
	p.Name = str(rec, "username", p.Name)
	p.Age = num(rec, "user_age", p.Age)
	p.Pronouns = str(rec, "user_pronouns", p.Pronouns)
	p.PrefTime = str(rec, "pref_time", p.PrefTime)
	p.MBTI = str(rec, "mbti", p.MBTI)
	p.Interests = strs(rec, "interests", p.Interests)
	p.Goals = strs(rec, "goals", p.Goals)
	p.Challenges = strs(rec, "challenges", p.Challenges)
	p.CurrentMood = str(rec, "current_mood", p.CurrentMood)
	p.CommunicationStyle = str(rec, "communication_style", p.CommunicationStyle)
	p.MotivationalStyle = str(rec, "motivational_style", p.MotivationalStyle)
	p.ConversationCount = num(rec, "conversation_count", p.ConversationCount)
	p.LastChatDate = str(rec, "last_chat_date", p.LastChatDate)
	p.RelationshipLevel = str(rec, "relationship_level", p.RelationshipLevel)
	return p
}

// RemoteSettings maps Settings to the user_settings table row for userID.
func RemoteSettings(s Settings, userID string, now time.Time) Record {
	return Record{
		"id":                      userID,
		"ai_name":                 s.AIName,
		"personality":             s.Personality,
		"typing_speed":            s.TypingSpeed,
		"response_delay":          s.ResponseDelay,
		"enable_speech_to_text":   s.EnableSpeechToText,
		"max_chat_history":        s.MaxChatHistory,
		"enable_emojis":           s.EnableEmojis,
		"enable_typing_animation": s.EnableTypingAnimation,
		"enable_notifications":    s.EnableNotifications,
		"updated_at":              now.UTC().Format(time.RFC3339),
	}
}

// SettingsFromRemote maps a user_settings row to Settings, defaulting
// every absent field.
func SettingsFromRemote(rec Record) Settings {
	s := DefaultSettings()
	s.AIName = str(rec, "ai_name", s.AIName)
	s.Personality = str(rec, "personality", s.Personality)
	s.TypingSpeed = num(rec, "typing_speed", s.TypingSpeed)
	s.ResponseDelay = num(rec, "response_delay", s.ResponseDelay)
	s.EnableSpeechToText = boolean(rec, "enable_speech_to_text", s.EnableSpeechToText)
	s.MaxChatHistory = num(rec, "max_chat_history", s.MaxChatHistory)
	s.EnableEmojis = boolean(rec, "enable_emojis", s.EnableEmojis)
	s.EnableTypingAnimation = boolean(rec, "enable_typing_animation", s.EnableTypingAnimation)
	s.EnableNotifications = boolean(rec, "enable_notifications", s.EnableNotifications)
	return s
}

// RemoteGoal maps a Goal to a user_goals row.
func RemoteGoal(g Goal, userID string, now time.Time) Record {
	rec := Record{
		"user_id":      userID,
		"goal_id":      g.ID,
		"text":         g.Text,
		"completed":    g.Completed,
		"completed_at": nil,
	}
	if g.Completed {
		rec["completed_at"] = now.UTC().Format(time.RFC3339)
	}
	return rec
}

// GoalFromRemote maps a user_goals row to a Goal.
func GoalFromRemote(rec Record) Goal {
	return Goal{
		ID:        str(rec, "goal_id", ""),
		Text:      str(rec, "text", ""),
		Completed: boolean(rec, "completed", false),
	}
}

// RemoteBadge maps a Badge to a user_badges row.
func RemoteBadge(b Badge, userID string, now time.Time) Record {
	rec := Record{
		"user_id":     userID,
		"badge_id":    b.ID,
		"name":        b.Name,
		"description": b.Description,
		"unlocked":    b.Unlocked,
		"icon":        b.Icon,
		"color_icon":  b.ColorIcon,
		"unlocked_at": nil,
	}
	if b.Unlocked {
		rec["unlocked_at"] = now.UTC().Format(time.RFC3339)
	}
	return rec
}

// BadgeFromRemote maps a user_badges row to a Badge.
func BadgeFromRemote(rec Record) Badge {
	return Badge{
		ID:          str(rec, "badge_id", ""),
		Name:        str(rec, "name", ""),
		Description: str(rec, "description", ""),
		Unlocked:    boolean(rec, "unlocked", false),
		Icon:        str(rec, "icon", ""),
		ColorIcon:   str(rec, "color_icon", ""),
	}
}

// RemoteMoodEntry maps a MoodEntry to a mood_history row.
func RemoteMoodEntry(e MoodEntry, userID string) Record {
	return Record{
		"user_id":     userID,
		"mood":        e.Mood,
		"recorded_at": e.Date,
	}
}

// MoodEntryFromRemote maps a mood_history row to a MoodEntry.
func MoodEntryFromRemote(rec Record) MoodEntry {
	return MoodEntry{
		Date: str(rec, "recorded_at", ""),
		Mood: str(rec, "mood", ""),
	}
}

// str reads a string field, falling back to def when absent or not a string.
func str(rec Record, key, def string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return def
}

// num reads a numeric field. Decoded JSON numbers arrive as float64.
func num(rec Record, key string, def int) int {
	switch v := rec[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// boolean reads a bool field, falling back to def when absent.
func boolean(rec Record, key string, def bool) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return def
}

// strs reads a string-array field, falling back to def when absent or of
// the wrong shape.
func strs(rec Record, key string, def []string) []string {
	raw, ok := rec[key].([]any)
	if !ok {
		if typed, ok := rec[key].([]string); ok {
			return typed
		}
		return def
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
