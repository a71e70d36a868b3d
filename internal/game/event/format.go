package event

import (
	"fmt"

	"github.com/cory-johannsen/textworld/internal/game/world"
)

// Render implements the Event Formatter of spec.md §4.6: a pure function
// choosing among four perspectives for one recipient, with attenuation
// (distance-dependent rewriting) applied first. An empty result means the
// recipient should not actually see anything (e.g. the mover's own arrival
// side of a movement event) and the Propagator discards it.
//
// viewerActorID == "" and viewerRoomID == "" together select the omniscient
// perspective used for the admin mirror.
func Render(e *Event, distance int, viewerActorID, viewerRoomID string, isListening bool) string {
	kind, attenuated := attenuate(e, distance)

	if kind == KindAmbient && attenuated && e.Type != KindAmbient {
		return renderAttenuatedStub(e, e.Type)
	}

	switch e.Type {
	case KindSpeech:
		return renderSpeech(e, viewerActorID)
	case KindShout:
		return renderShout(e, distance, viewerActorID)
	case KindEmote:
		return renderEmote(e, viewerActorID)
	case KindTell:
		return renderTell(e, viewerActorID, isListening)
	case KindWhisper:
		return renderWhisper(e, viewerActorID)
	case KindMovement:
		return renderMovement(e, viewerActorID, viewerRoomID)
	case KindPlayerEntered:
		return renderPresence(e, "%s has entered the room.")
	case KindPlayerLeft:
		return renderPresence(e, "%s has left the room.")
	case KindRoomDescription:
		return "" // rendered directly from the structured payload by the output pipeline, not as prose
	case KindCombatStart:
		return renderCombatStart(e, viewerActorID)
	case KindCombatHit:
		return renderCombatHit(e, viewerActorID)
	case KindDeath:
		return renderDeath(e, viewerActorID)
	case KindItemPickup:
		return renderItem(e, viewerActorID, "picks up")
	case KindItemDrop:
		return renderItem(e, viewerActorID, "drops")
	case KindItemEquip:
		return renderItemEquip(e, viewerActorID)
	case KindSystem, KindConnection, KindStateChange:
		if p, ok := e.Payload.(SystemPayload); ok {
			return p.Message
		}
		return e.Content
	case KindAmbient:
		if p, ok := e.Payload.(AmbientPayload); ok {
			return p.Message
		}
		return e.Content
	default:
		return e.Content
	}
}

func renderAttenuatedStub(e *Event, original Kind) string {
	switch original {
	case KindCombatStart:
		return "You sense the distant clamor of a fight breaking out."
	case KindDeath:
		return "You hear a distant, dying cry."
	default:
		return e.Content
	}
}

func perspective(e *Event, viewerActorID string) string {
	switch {
	case viewerActorID == "":
		return "omniscient"
	case viewerActorID == e.ActorID:
		return "actor"
	default:
		return "observer"
	}
}

func renderSpeech(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(SpeechPayload)
	switch perspective(e, viewerActorID) {
	case "actor":
		return fmt.Sprintf(`You say, "%s"`, p.Message)
	default:
		return fmt.Sprintf(`%s says, "%s"`, p.ActorName, p.Message)
	}
}

func renderShout(e *Event, distance int, viewerActorID string) string {
	p, _ := e.Payload.(SpeechPayload)
	var base string
	switch perspective(e, viewerActorID) {
	case "actor":
		base = fmt.Sprintf(`You shout, "%s"`, p.Message)
	default:
		base = fmt.Sprintf(`%s shouts, "%s"`, p.ActorName, p.Message)
	}
	if distance > 0 {
		return "You hear a distant shout: " + base
	}
	return base
}

func renderEmote(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(SpeechPayload)
	switch perspective(e, viewerActorID) {
	case "actor":
		return fmt.Sprintf("You %s", p.Action)
	default:
		return fmt.Sprintf("%s %s", p.ActorName, p.Action)
	}
}

// renderTell implements the tell-obfuscation invariant of spec.md §8:
// observers see `<sender> says something to <target>.` unless they are
// listening to sender or target, in which case they see the full message,
// exactly the way the actor and target always do.
func renderTell(e *Event, viewerActorID string, isListening bool) string {
	p, _ := e.Payload.(DirectedPayload)
	switch {
	case viewerActorID == p.ActorID:
		return fmt.Sprintf(`You say to %s, "%s"`, p.TargetName, p.Message)
	case viewerActorID == p.TargetID:
		return fmt.Sprintf(`%s says to you, "%s"`, p.ActorName, p.Message)
	case isListening:
		return fmt.Sprintf(`%s says to %s: "%s"`, p.ActorName, p.TargetName, p.Message)
	default:
		return fmt.Sprintf("%s says something to %s.", p.ActorName, p.TargetName)
	}
}

// renderWhisper never reveals content to a third party because whispers are
// visibility=private and the Propagator only ever delivers them to the
// actor and target in the first place; this function exists for the
// omniscient admin mirror, which sees everything.
func renderWhisper(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(DirectedPayload)
	switch {
	case viewerActorID == p.ActorID:
		return fmt.Sprintf(`You whisper to %s, "%s"`, p.TargetName, p.Message)
	case viewerActorID == p.TargetID:
		return fmt.Sprintf(`%s whispers to you, "%s"`, p.ActorName, p.Message)
	default:
		return fmt.Sprintf(`%s whispers something to %s.`, p.ActorName, p.TargetName)
	}
}

func renderPresence(e *Event, verbFmt string) string {
	p, _ := e.Payload.(PresencePayload)
	return fmt.Sprintf(verbFmt, p.ActorName)
}

func renderCombatStart(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(CombatStartPayload)
	switch viewerActorID {
	case p.AttackerID:
		return fmt.Sprintf("You attack %s!", p.TargetName)
	case p.TargetID:
		return fmt.Sprintf("%s attacks you!", p.AttackerName)
	default:
		return fmt.Sprintf("%s attacks %s!", p.AttackerName, p.TargetName)
	}
}

func renderCombatHit(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(CombatHitPayload)
	switch viewerActorID {
	case p.AttackerID:
		return fmt.Sprintf("You hit %s for %d damage! (%d/%d HP)", p.TargetName, p.Damage, p.TargetHP, p.TargetMaxHP)
	case p.TargetID:
		return fmt.Sprintf("%s hits you for %d damage! (%d/%d HP)", p.AttackerName, p.Damage, p.TargetHP, p.TargetMaxHP)
	default:
		return fmt.Sprintf("%s hits %s for %d damage.", p.AttackerName, p.TargetName, p.Damage)
	}
}

func renderDeath(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(DeathPayload)
	if viewerActorID == p.VictimID {
		return "You have died."
	}
	return fmt.Sprintf("%s has died.", p.VictimName)
}

func renderItem(e *Event, viewerActorID, verb string) string {
	p, _ := e.Payload.(ItemPayload)
	if viewerActorID == p.ActorID {
		return fmt.Sprintf("You %s %s.", verb, p.ItemName)
	}
	return fmt.Sprintf("%s %s %s.", p.ActorName, verb, p.ItemName)
}

func renderItemEquip(e *Event, viewerActorID string) string {
	p, _ := e.Payload.(ItemPayload)
	verb := "equips"
	if !p.IsEquipped {
		verb = "unequips"
	}
	if viewerActorID == p.ActorID {
		you := "equip"
		if !p.IsEquipped {
			you = "unequip"
		}
		return fmt.Sprintf("You %s %s.", you, p.ItemName)
	}
	return fmt.Sprintf("%s %s %s.", p.ActorName, verb, p.ItemName)
}

// renderMovement implements spec.md §4.6's movement perspective rule: the
// mover sees only a departure line in the origin room and an empty string
// in the destination (the subsequent room_description carries arrival
// context there); observers in the origin see a departure, observers in
// the destination see an arrival from the opposite direction.
func renderMovement(e *Event, viewerActorID, viewerRoomID string) string {
	p, _ := e.Payload.(MovementPayload)
	inOrigin := viewerRoomID == p.FromRoomID
	inDestination := viewerRoomID == p.ToRoomID

	if viewerActorID == p.ActorID {
		if inDestination {
			return ""
		}
		return fmt.Sprintf("You move %s.", p.Direction)
	}

	if inDestination {
		return fmt.Sprintf("%s arrives from %s.", p.ActorName, arrivalPhrase(world.Direction(p.Direction)))
	}
	if inOrigin {
		return fmt.Sprintf("%s moves %s.", p.ActorName, p.Direction)
	}
	return ""
}

// arrivalPhrase describes where an arriving mover came from, layering the
// spec's asymmetric vertical wording (up↔below, down↔above) on top of
// world.Direction.Opposite()'s purely compass-symmetric table — Opposite()
// itself has no notion of "below"/"above", only North/South/etc, so this
// helper special-cases the two vertical directions before falling back to
// Opposite() for everything else. Compass directions take the article
// ("the south"); the vertical and unknown forms do not.
func arrivalPhrase(dir world.Direction) string {
	switch dir {
	case world.Up:
		return "below"
	case world.Down:
		return "above"
	default:
		opp := dir.Opposite()
		if opp == "" {
			return "somewhere"
		}
		return "the " + string(opp)
	}
}
