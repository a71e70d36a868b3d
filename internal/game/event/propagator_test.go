package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

type fakePlayerSink struct {
	connected map[string]bool
	delivered map[string][]string
}

func newFakePlayerSink(connectedIDs ...string) *fakePlayerSink {
	s := &fakePlayerSink{connected: map[string]bool{}, delivered: map[string][]string{}}
	for _, id := range connectedIDs {
		s.connected[id] = true
	}
	return s
}

func (f *fakePlayerSink) DeliverEvent(characterID string, _ *worldstore.GameEvent, rendered string) bool {
	if !f.connected[characterID] {
		return false
	}
	f.delivered[characterID] = append(f.delivered[characterID], rendered)
	return true
}

type fakeAgentSink struct {
	agents    map[string]bool
	delivered map[string][]*Event
}

func newFakeAgentSink(agentIDs ...string) *fakeAgentSink {
	s := &fakeAgentSink{agents: map[string]bool{}, delivered: map[string][]*Event{}}
	for _, id := range agentIDs {
		s.agents[id] = true
	}
	return s
}

func (f *fakeAgentSink) DeliverEvent(characterID string, e *Event) bool {
	if !f.agents[characterID] {
		return false
	}
	f.delivered[characterID] = append(f.delivered[characterID], e)
	return true
}

func twoRoomWorld(t *testing.T) *world.Manager {
	t.Helper()
	a := world.NewRoom("A", "Room A", "")
	b := world.NewRoom("B", "Room B", "")
	a.Exits[world.North] = "B"
	b.Exits[world.South] = "A"
	mgr, err := world.NewManager([]*world.Room{a, b})
	require.NoError(t, err)
	return mgr
}

func livingCharacter(id, roomID string) *character.Character {
	return &character.Character{
		ID: id, Name: id, AccountID: "acct-" + id, CurrentRoomID: roomID,
		HP: 10, MaxHP: 10, Attack: 10, Defense: 5, Speed: 10,
		IsAlive: true, CreatedAt: time.Now(),
	}
}

func TestPropagatorShoutReachesNeighbourAttenuated(t *testing.T) {
	rooms := twoRoomWorld(t)
	chars := state.NewCharacterRegistry()
	require.NoError(t, chars.Add(livingCharacter("p1", "A")))
	require.NoError(t, chars.Add(livingCharacter("p2", "B")))

	players := newFakePlayerSink("p1", "p2")
	agents := newFakeAgentSink()
	store := memstore.New()

	prop := New(rooms, chars, listening.New(), store.Events(), store.PlayerLogs(), players, agents, zap.NewNop())
	prop.Broadcast(&Event{
		Type: KindShout, OriginRoomID: "A", Visibility: worldstore.VisibilityGlobal,
		ActorID: "p1", Payload: SpeechPayload{ActorID: "p1", ActorName: "p1", Message: "HELLO"},
	})
	prop.FlushQueue(context.Background())

	require.Len(t, players.delivered["p2"], 1)
	require.Contains(t, players.delivered["p2"][0], "You hear a distant shout:")
	require.Contains(t, players.delivered["p2"][0], "HELLO")
}

func TestPropagatorPrivateVisibilityReachesOnlyActor(t *testing.T) {
	rooms := twoRoomWorld(t)
	chars := state.NewCharacterRegistry()
	require.NoError(t, chars.Add(livingCharacter("p1", "A")))
	require.NoError(t, chars.Add(livingCharacter("observer", "A")))

	players := newFakePlayerSink("p1", "observer")
	agents := newFakeAgentSink()
	store := memstore.New()

	prop := New(rooms, chars, listening.New(), store.Events(), store.PlayerLogs(), players, agents, zap.NewNop())
	prop.Broadcast(&Event{
		Type: KindSystem, OriginRoomID: "A", Visibility: worldstore.VisibilityPrivate,
		ActorID: "p1", Payload: SystemPayload{ActorID: "p1", Message: "you feel dizzy"},
	})
	prop.FlushQueue(context.Background())

	require.Len(t, players.delivered["p1"], 1)
	require.Empty(t, players.delivered["observer"])
}

func TestPropagatorDeliversToAIPerceptionQueue(t *testing.T) {
	rooms := twoRoomWorld(t)
	chars := state.NewCharacterRegistry()
	require.NoError(t, chars.Add(livingCharacter("p1", "A")))
	npc := livingCharacter("npc1", "A")
	npc.AccountID = ""
	require.NoError(t, chars.Add(npc))

	players := newFakePlayerSink("p1")
	agents := newFakeAgentSink("npc1")
	store := memstore.New()

	prop := New(rooms, chars, listening.New(), store.Events(), store.PlayerLogs(), players, agents, zap.NewNop())
	prop.Broadcast(&Event{
		Type: KindSpeech, OriginRoomID: "A", Visibility: worldstore.VisibilityRoom,
		ActorID: "p1", Payload: SpeechPayload{ActorID: "p1", ActorName: "p1", Message: "hi"},
	})
	prop.FlushQueue(context.Background())

	require.Len(t, agents.delivered["npc1"], 1)
}

func TestPropagatorNeverDeliversAIEventsToPlayers(t *testing.T) {
	rooms := twoRoomWorld(t)
	chars := state.NewCharacterRegistry()
	require.NoError(t, chars.Add(livingCharacter("p1", "A")))

	players := newFakePlayerSink("p1")
	agents := newFakeAgentSink()
	store := memstore.New()

	prop := New(rooms, chars, listening.New(), store.Events(), store.PlayerLogs(), players, agents, zap.NewNop())
	prop.Broadcast(&Event{
		Type: KindAIDecision, OriginRoomID: "A", Visibility: worldstore.VisibilityPrivate,
		ActorID: "npc1", Payload: AIDecisionPayload{AgentID: "npc1", Reasoning: "thinking"},
	})
	prop.FlushQueue(context.Background())

	require.Empty(t, players.delivered["p1"])
}
