package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

func TestRenderTellObfuscatesForNonParticipants(t *testing.T) {
	e := &Event{
		Type:       KindTell,
		Visibility: worldstore.VisibilityRoom,
		ActorID:    "p1",
		Payload: DirectedPayload{
			ActorID: "p1", ActorName: "P1",
			TargetID: "p2", TargetName: "P2",
			Message: "secret plan",
		},
	}

	require.Equal(t, "P1 says something to P2.", Render(e, 0, "observer", "room", false))
	require.Equal(t, `You say to P2, "secret plan"`, Render(e, 0, "p1", "room", false))
	require.Equal(t, `P1 says to you, "secret plan"`, Render(e, 0, "p2", "room", false))
	require.Equal(t, `P1 says to P2: "secret plan"`, Render(e, 0, "observer", "room", true))
}

func TestRenderShoutAttenuatesAtDistance(t *testing.T) {
	e := &Event{
		Type:    KindShout,
		ActorID: "p1",
		Payload: SpeechPayload{ActorID: "p1", ActorName: "P1", Message: "HELLO"},
	}
	near := Render(e, 0, "observer", "roomA", false)
	require.Equal(t, `P1 shouts, "HELLO"`, near)

	far := Render(e, 2, "observer", "roomC", false)
	require.Contains(t, far, "You hear a distant shout:")
	require.Contains(t, far, "HELLO")
}

func TestRenderMovementPerspectives(t *testing.T) {
	e := &Event{
		Type:    KindMovement,
		ActorID: "mover",
		Payload: MovementPayload{
			ActorID: "mover", ActorName: "P",
			FromRoomID: "A", ToRoomID: "B", Direction: "north",
		},
	}

	require.Equal(t, "You move north.", Render(e, 0, "mover", "A", false))
	require.Equal(t, "", Render(e, 0, "mover", "B", false))
	require.Equal(t, "P moves north.", Render(e, 0, "observer", "A", false))
	require.Equal(t, "P arrives from the south.", Render(e, 0, "observer", "B", false))
}

func TestRenderMovementVerticalAsymmetry(t *testing.T) {
	e := &Event{
		Type:    KindMovement,
		ActorID: "mover",
		Payload: MovementPayload{
			ActorID: "mover", ActorName: "P",
			FromRoomID: "A", ToRoomID: "B", Direction: "up",
		},
	}
	require.Equal(t, "P arrives from below.", Render(e, 0, "observer", "B", false))
}

func TestRenderMovementUnknownDirection(t *testing.T) {
	e := &Event{
		Type:    KindMovement,
		ActorID: "mover",
		Payload: MovementPayload{
			ActorID: "mover", ActorName: "P",
			FromRoomID: "A", ToRoomID: "B", Direction: "portal",
		},
	}
	require.Equal(t, "P arrives from somewhere.", Render(e, 0, "observer", "B", false))
}

func TestRenderCombatHitPerspectives(t *testing.T) {
	e := &Event{
		Type: KindCombatHit,
		Payload: CombatHitPayload{
			AttackerID: "a", AttackerName: "Attacker",
			TargetID: "t", TargetName: "Target",
			Damage: 15, TargetHP: 0, TargetMaxHP: 10,
		},
	}
	require.Contains(t, Render(e, 0, "a", "", false), "You hit Target for 15 damage")
	require.Contains(t, Render(e, 0, "t", "", false), "Attacker hits you for 15 damage")
	require.Contains(t, Render(e, 0, "observer", "", false), "Attacker hits Target for 15 damage")
}
