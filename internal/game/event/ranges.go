package event

import (
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
)

// propagationMode classifies how a Kind's recipients are computed, per the
// range table in spec.md §4.5 step 2.
type propagationMode int

const (
	modeRoomRange  propagationMode = iota // BFS to hops(kind), same-room default is hops=0
	modeMovement                          // origin ∪ destination, destination always included
	modePerActor                          // delivered only to the acting actor, never propagated
	modeAdminOnly                         // ai:* — never delivered to players/AI
)

func rangeHops(k Kind) (mode propagationMode, hops int) {
	switch k {
	case KindSpeech, KindEmote, KindTell, KindWhisper,
		KindItemPickup, KindItemDrop, KindItemEquip,
		KindPlayerEntered, KindPlayerLeft, KindRoomDescription, KindAmbient:
		return modeRoomRange, 0
	case KindShout, KindCombatStart, KindDeath:
		return modeRoomRange, 2
	case KindMovement:
		return modeMovement, 0
	case KindSystem, KindConnection, KindStateChange:
		return modePerActor, 0
	case KindAIDecision, KindAIAction, KindAIError:
		return modeAdminOnly, 0
	default:
		return modeRoomRange, 0
	}
}

// recipient is one computed delivery target: a character id, its BFS
// distance from the event's origin room (0 for the origin room itself),
// and the room the viewer is actually standing in (relevant for movement's
// origin-vs-destination perspective split).
type recipient struct {
	characterID  string
	distance     int
	viewerRoomID string
}

// computeRecipients implements spec.md §4.5 step 2's recipient computation.
func computeRecipients(e *Event, rooms *world.Manager, chars *state.CharacterRegistry) []recipient {
	if len(e.ExplicitRecipients) > 0 {
		out := make([]recipient, 0, len(e.ExplicitRecipients))
		for _, id := range e.ExplicitRecipients {
			out = append(out, recipient{characterID: id, distance: 0, viewerRoomID: e.OriginRoomID})
		}
		return out
	}

	if e.Visibility == "private" {
		return []recipient{{characterID: e.ActorID, distance: 0, viewerRoomID: e.OriginRoomID}}
	}

	mode, hops := rangeHops(e.Type)
	switch mode {
	case modeAdminOnly:
		return nil
	case modePerActor:
		if e.ActorID == "" {
			return nil
		}
		return []recipient{{characterID: e.ActorID, distance: 0, viewerRoomID: e.OriginRoomID}}
	case modeMovement:
		return movementRecipients(e, chars)
	default:
		return roomRangeRecipients(e, rooms, chars, hops)
	}
}

func roomRangeRecipients(e *Event, rooms *world.Manager, chars *state.CharacterRegistry, hops int) []recipient {
	distances := rooms.RoomsWithinHops(e.OriginRoomID, hops)
	var out []recipient
	for roomID, dist := range distances {
		for _, c := range chars.InRoom(roomID) {
			out = append(out, recipient{characterID: c.ID, distance: dist, viewerRoomID: roomID})
		}
	}
	return out
}

// movementRecipients delivers to both origin and destination rooms
// regardless of distance — the special case called out in spec.md §4.5
// step 2: "destination actors also receive the event even when distance != 0".
func movementRecipients(e *Event, chars *state.CharacterRegistry) []recipient {
	mv, ok := e.Payload.(MovementPayload)
	if !ok {
		return roomRangeRecipients(e, nil, chars, 0)
	}
	var out []recipient
	for _, c := range chars.InRoom(mv.FromRoomID) {
		out = append(out, recipient{characterID: c.ID, distance: 0, viewerRoomID: mv.FromRoomID})
	}
	for _, c := range chars.InRoom(mv.ToRoomID) {
		out = append(out, recipient{characterID: c.ID, distance: 0, viewerRoomID: mv.ToRoomID})
	}
	return out
}

// attenuate rewrites an event's effective type/content for a recipient at
// distance > 0, per spec.md §4.5 step 3. It returns the Kind to render with
// and whether the event is attenuated for this recipient, leaving the stored Event untouched (attenuation is a
// per-recipient rendering concern, not a mutation of the canonical event).
func attenuate(e *Event, distance int) (Kind, bool) {
	if distance <= 0 {
		return e.Type, e.Attenuated
	}
	switch e.Type {
	case KindCombatStart, KindDeath:
		return KindAmbient, true
	case KindShout:
		return KindShout, true
	default:
		return e.Type, e.Attenuated
	}
}
