// ABOUTME: Domain record types and defaults for the five synced data domains
// ABOUTME: JSON tags preserve the on-disk shapes used by the companion app

package domain

// Domain identifies one of the five independently-synced data categories.
type Domain string

const (
	DomainProfile     Domain = "profile"
	DomainSettings    Domain = "settings"
	DomainBadges      Domain = "badges"
	DomainGoals       Domain = "goals"
	DomainMoodHistory Domain = "mood_history"
)

// Profile is the user's companion profile.
type Profile struct {
	Name               string   `json:"userName"`
	Age                int      `json:"userAge"`
	Pronouns           string   `json:"userPronouns"`
	PrefTime           string   `json:"userPrefTime"`
	MBTI               string   `json:"MBTI"`
	Interests          []string `json:"interests"`
	Goals              []string `json:"goals"`
	Challenges         []string `json:"challenges"`
	CurrentMood        string   `json:"currentMood"`
	CommunicationStyle string   `json:"communicationStyle"`
	MotivationalStyle  string   `json:"motivationalStyle"`
	ConversationCount  int      `json:"conversationCount"`
	LastChatDate       string   `json:"lastChatDate"`
	RelationshipLevel  string   `json:"relationshipLevel"`
}

// Settings holds the chat behavior preferences.
type Settings struct {
	AIName                string `json:"aiName"`
	Personality           string `json:"personality"`
	TypingSpeed           int    `json:"typingSpeed"`
	ResponseDelay         int    `json:"responseDelay"`
	EnableSpeechToText    bool   `json:"enableSpeechToText"`
	MaxChatHistory        int    `json:"maxChatHistory"`
	EnableEmojis          bool   `json:"enableEmojis"`
	EnableTypingAnimation bool   `json:"enableTypingAnimation"`
	EnableNotifications   bool   `json:"enableNotifications"`
}

// Goal is a single challenge goal, keyed by a stable per-goal id.
type Goal struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Badge is an achievement badge.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Icon        string `json:"icon"`
	ColorIcon   string `json:"colorIcon"`
}

// MoodEntry is one recorded mood, with its RFC 3339 timestamp.
type MoodEntry struct {
	Date string `json:"date"`
	Mood string `json:"mood"`
}

// DefaultProfile returns a Profile with every field at its default.
// Slices are non-nil so serialized output stays stable.
func DefaultProfile() Profile {
	return Profile{
		Interests:  []string{},
		Goals:      []string{},
		Challenges: []string{},
	}
}

// DefaultSettings returns the chat settings used before the user customizes
// anything.
func DefaultSettings() Settings {
	return Settings{
		AIName:                "AI Assistant",
		Personality:           "friendly",
		TypingSpeed:           50,
		ResponseDelay:         1000,
		EnableSpeechToText:    false,
		MaxChatHistory:        50,
		EnableEmojis:          true,
		EnableTypingAnimation: true,
		EnableNotifications:   false,
	}
}
