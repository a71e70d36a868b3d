// Package event implements the Event Propagator and Event Formatter:
// spec.md §4.5/§4.6. Game Events carry a typed payload per event Kind (the
// Design Note in spec.md §9 on "dynamically typed event data" — the tagged
// variant lives here; worldstore.GameEvent's map[string]any Data field is
// only the persisted/serialised form, assembled at the propagator's
// persistence step).
package event

import (
	"time"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// Kind is the closed set of Game Event types from spec.md §3.
type Kind string

const (
	KindSpeech          Kind = "speech"
	KindShout           Kind = "shout"
	KindTell            Kind = "tell"
	KindWhisper         Kind = "whisper"
	KindEmote           Kind = "emote"
	KindMovement        Kind = "movement"
	KindPlayerEntered   Kind = "player_entered"
	KindPlayerLeft      Kind = "player_left"
	KindRoomDescription Kind = "room_description"
	KindCombatStart     Kind = "combat_start"
	KindCombatHit       Kind = "combat_hit"
	KindDeath           Kind = "death"
	KindItemPickup      Kind = "item_pickup"
	KindItemDrop        Kind = "item_drop"
	KindItemEquip       Kind = "item_equip"
	KindSystem          Kind = "system"
	KindAmbient         Kind = "ambient"
	KindConnection      Kind = "connection"
	KindStateChange     Kind = "state_change"
	KindAIDecision      Kind = "ai:decision"
	KindAIAction        Kind = "ai:action"
	KindAIError         Kind = "ai:error"
)

// IsAIOnly reports whether a kind is admin/AI-debug-only per spec.md §4.5
// step 2 ("ai:* ⇒ admin only, not delivered to players/AI").
func (k Kind) IsAIOnly() bool {
	switch k {
	case KindAIDecision, KindAIAction, KindAIError:
		return true
	default:
		return false
	}
}

// SpeechPayload backs speech, shout, and emote (Action replaces Message for
// emote; only the field that applies to the event's Kind is populated, and
// the formatter reads that one).
type SpeechPayload struct {
	ActorID   string
	ActorName string
	Message   string
	Action    string
}

// DirectedPayload backs tell and whisper.
type DirectedPayload struct {
	ActorID    string
	ActorName  string
	TargetID   string
	TargetName string
	Message    string
}

// MovementPayload backs movement.
type MovementPayload struct {
	ActorID    string
	ActorName  string
	FromRoomID string
	ToRoomID   string
	Direction  string
}

// PresencePayload backs player_entered and player_left.
type PresencePayload struct {
	ActorID   string
	ActorName string
}

// RoomDescriptionPayload backs room_description, delivered privately to a
// mover right after their movement event per spec.md §4.3's `go` handler.
type RoomDescriptionPayload struct {
	RoomID      string
	Name        string
	Description string
	Exits       []string
	Characters  []string
	Items       []string
}

// CombatStartPayload backs combat_start.
type CombatStartPayload struct {
	AttackerID   string
	AttackerName string
	TargetID     string
	TargetName   string
}

// CombatHitPayload backs combat_hit.
type CombatHitPayload struct {
	AttackerID   string
	AttackerName string
	TargetID     string
	TargetName   string
	Damage       int
	TargetHP     int
	TargetMaxHP  int
}

// DeathPayload backs death.
type DeathPayload struct {
	VictimID   string
	VictimName string
	KillerID   string
}

// ItemPayload backs item_pickup, item_drop, and item_equip.
type ItemPayload struct {
	ActorID    string
	ActorName  string
	ItemID     string
	ItemName   string
	IsEquipped bool
}

// SystemPayload backs system, connection, and state_change (per-actor,
// non-propagated informational events).
type SystemPayload struct {
	ActorID string
	Message string
}

// AmbientPayload backs ambient events, including attenuated stubs rewritten
// from combat_start/death.
type AmbientPayload struct {
	Message string
}

// AIDecisionPayload backs ai:decision.
type AIDecisionPayload struct {
	AgentID   string
	AgentName string
	Reasoning string
}

// AIActionPayload backs ai:action.
type AIActionPayload struct {
	AgentID   string
	AgentName string
	Action    string
	Arguments map[string]string
}

// AIErrorPayload backs ai:error.
type AIErrorPayload struct {
	AgentID string
	Reason  string
}

// Event is the domain-level, typed representation of a Game Event as it
// flows through the Propagator, before being flattened into
// worldstore.GameEvent's map[string]any Data for persistence.
type Event struct {
	ID           string
	Type         Kind
	Timestamp    time.Time
	OriginRoomID string
	Visibility   worldstore.EventVisibility
	Attenuated   bool
	Content      string
	Payload      any

	// ActorID is the acting character, used for first-person formatting and
	// as the sole recipient of private, per-actor events.
	ActorID string
	// ExplicitRecipients overrides recipient computation entirely when
	// non-empty (private visibility's "or explicitly included recipients"
	// clause in spec.md §4.5 step 7).
	ExplicitRecipients []string
	// RelatedEntities lists every character/item id the event references,
	// persisted alongside the event per spec.md §3.
	RelatedEntities []string
}

// ToGameEvent flattens the typed Event into its persisted worldstore form.
func (e *Event) ToGameEvent() *worldstore.GameEvent {
	return &worldstore.GameEvent{
		ID:              e.ID,
		Type:            string(e.Type),
		Timestamp:       e.Timestamp,
		OriginRoomID:    e.OriginRoomID,
		Visibility:      e.Visibility,
		Attenuated:      e.Attenuated,
		Content:         e.Content,
		Data:            payloadToMap(e),
		RelatedEntities: e.RelatedEntities,
	}
}

func payloadToMap(e *Event) map[string]any {
	data := map[string]any{"actorId": e.ActorID}
	switch p := e.Payload.(type) {
	case SpeechPayload:
		data["actorName"] = p.ActorName
		data["message"] = p.Message
		data["action"] = p.Action
	case DirectedPayload:
		data["actorName"] = p.ActorName
		data["targetId"] = p.TargetID
		data["targetName"] = p.TargetName
		data["message"] = p.Message
	case MovementPayload:
		data["actorName"] = p.ActorName
		data["fromRoomId"] = p.FromRoomID
		data["toRoomId"] = p.ToRoomID
		data["direction"] = p.Direction
	case PresencePayload:
		data["actorName"] = p.ActorName
	case RoomDescriptionPayload:
		data["roomId"] = p.RoomID
		data["name"] = p.Name
		data["description"] = p.Description
		data["exits"] = p.Exits
		data["characters"] = p.Characters
		data["items"] = p.Items
	case CombatStartPayload:
		data["attackerId"] = p.AttackerID
		data["attackerName"] = p.AttackerName
		data["targetId"] = p.TargetID
		data["targetName"] = p.TargetName
	case CombatHitPayload:
		data["attackerId"] = p.AttackerID
		data["attackerName"] = p.AttackerName
		data["targetId"] = p.TargetID
		data["targetName"] = p.TargetName
		data["damage"] = p.Damage
		data["targetHp"] = p.TargetHP
		data["targetMaxHp"] = p.TargetMaxHP
	case DeathPayload:
		data["victimId"] = p.VictimID
		data["victimName"] = p.VictimName
		data["killerId"] = p.KillerID
	case ItemPayload:
		data["actorName"] = p.ActorName
		data["itemId"] = p.ItemID
		data["itemName"] = p.ItemName
		data["isEquipped"] = p.IsEquipped
	case SystemPayload:
		data["message"] = p.Message
	case AmbientPayload:
		data["message"] = p.Message
	case AIDecisionPayload:
		data["agentId"] = p.AgentID
		data["agentName"] = p.AgentName
		data["reasoning"] = p.Reasoning
	case AIActionPayload:
		data["agentId"] = p.AgentID
		data["agentName"] = p.AgentName
		data["action"] = p.Action
		data["arguments"] = p.Arguments
	case AIErrorPayload:
		data["agentId"] = p.AgentID
		data["reason"] = p.Reason
	}
	return data
}
