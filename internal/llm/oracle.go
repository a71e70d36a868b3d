// Package llm defines the LLM Oracle boundary: the narrow contract the AI
// Agent Manager calls into to turn perceived world state into a decision,
// without the core knowing anything about a specific model vendor.
package llm

import (
	"context"
	"time"
)

// Usage records the billed token accounting for one Oracle call, mirroring
// the shape the manager forwards into the Token-Usage Log.
type Usage struct {
	Model            string
	Provider         string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
}

// DecisionRequest bundles everything the Oracle needs to decide an AI
// Agent's next action or response. Fields mirror the ordered parameter list
// an agent's context assembly step builds on every call.
type DecisionRequest struct {
	SystemPrompt        string
	AgentName           string
	FormattedEvents     []string
	Adjacencies         []string
	Occupants           []string
	Items               []string
	Relationships       map[string]RelationshipView
	TimeSinceLastAction time.Duration
	RoomContext         string
	SpatialMemory       string

	// AgentID and SourceEventID are carried through only to stamp the
	// resulting Usage/TokenUsageLog; the Oracle itself never inspects them.
	AgentID       string
	SourceEventID string
}

// RelationshipView is the Oracle-facing projection of an agent's memory of
// one peer, stripped of storage-layer concerns.
type RelationshipView struct {
	Sentiment   int
	Trust       int
	Familiarity int
	LastSeen    time.Time
	Role        string
}

// Decision is the Oracle's answer to DecideAction: a single tool-shaped
// command to submit to the Command Dispatcher, or nil for a deliberate
// no-op.
type Decision struct {
	Action    string
	Arguments map[string]string
	Reasoning string
}

// ResponseDecision is the Oracle's answer to DecideResponse.
type ResponseDecision struct {
	ShouldRespond bool
	Response      string
	Reasoning     string
}

// Oracle is the abstract LLM collaborator. Every method takes a
// caller-supplied context for cancellation/deadline; a timed-out call must
// return a non-nil error so the caller can treat the agent as a no-op and
// emit an ai:error event, per the suspension-point contract.
type Oracle interface {
	// DecideAction is the proactive-loop entry point: given the agent's
	// perceived state, returns the next action to take, or a nil Decision
	// when the Oracle elects to do nothing this round.
	DecideAction(ctx context.Context, req DecisionRequest) (*Decision, *Usage, error)

	// DecideResponse is the conversation-path entry point, used when the
	// agent has just been addressed directly (told, whispered to, or
	// spoken to in its presence).
	DecideResponse(ctx context.Context, req DecisionRequest) (*ResponseDecision, *Usage, error)

	// SummariseSpatialMap compresses an agent's accumulated room-by-room
	// notes into a short refreshed spatial memory string.
	SummariseSpatialMap(ctx context.Context, text string) (string, *Usage, error)
}
