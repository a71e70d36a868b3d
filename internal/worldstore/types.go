// Package worldstore declares the abstract repository boundary between the
// simulation core and persistence. Every aggregate gets one small interface
// so the core can be exercised against an in-memory implementation
// (memstore) in unit tests, while a postgres implementation backs real
// deployments.
package worldstore

import "time"

// Account owns zero or more Characters and is created lazily on first login.
type Account struct {
	ID          string
	Username    string
	CreatedAt   time.Time
	Preferences map[string]string
}

// Relationship is an AI Agent's memory of one peer actor.
type Relationship struct {
	Sentiment   int // [-10, 10]
	Trust       int // [0, 10]
	Familiarity int // >= 0
	LastSeen    time.Time
	Role        string
}

// ConversationEntry is one line of an AI Agent's bounded conversation
// history.
type ConversationEntry struct {
	Speaker   string
	Message   string
	Timestamp time.Time
}

// AIAgent is the persisted state of one LLM-controlled NPC.
type AIAgent struct {
	ID                     string
	CharacterID            string
	SystemPrompt           string
	HomeRoomID             string
	MaxRoomsFromHome       int // 0..10
	SpatialMemory          string
	SpatialMemoryUpdatedAt time.Time
	Relationships          map[string]Relationship // peer name -> relationship
	ConversationHistory    []ConversationEntry      // bounded to last 20
	LastActionAt           time.Time

	// Cooldown overrides the global AIConfig.Cooldown for this agent when
	// non-zero, matching the teacher's per-template tunable fields.
	Cooldown time.Duration
}

// EventVisibility is the closed set of Game Event visibility scopes.
type EventVisibility string

const (
	VisibilityRoom    EventVisibility = "room"
	VisibilityGlobal  EventVisibility = "global"
	VisibilityPrivate EventVisibility = "private"
)

// GameEvent is an append-only semantic fact about the world.
type GameEvent struct {
	ID             string
	Type           string
	Timestamp      time.Time
	OriginRoomID   string
	Visibility     EventVisibility
	Attenuated     bool
	Content        string
	Data           map[string]any
	RelatedEntities []string
}

// TokenUsageSource is the closed set of oracle-call sources that are billed.
type TokenUsageSource string

const (
	SourceConversation     TokenUsageSource = "conversation"
	SourceDecision         TokenUsageSource = "decision"
	SourceDecisionResponse TokenUsageSource = "decision_response"
	SourceSpatialMemory    TokenUsageSource = "spatial_memory"
)

// TokenUsageLog records one LLM Oracle call's billed token usage.
type TokenUsageLog struct {
	ID               string
	Model            string
	Provider         string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
	Source           TokenUsageSource
	AgentID          string
	SourceEventID    string
	CreatedAt        time.Time
}

// PlayerLogKind is the closed set of PlayerLog entry kinds.
type PlayerLogKind string

const (
	LogKindCommand PlayerLogKind = "command"
	LogKindOutput  PlayerLogKind = "output"
	LogKindEvent   PlayerLogKind = "event"
)

// PlayerLog is one append-only narrative trace entry for a character.
type PlayerLog struct {
	CharacterID string
	Kind        PlayerLogKind
	Payload     string
	Timestamp   time.Time
}

// GameState is the persisted simulation clock, restored on boot.
type GameState struct {
	IsPaused bool
	GameTime int64 // monotonic tick count scaled to seconds
}
