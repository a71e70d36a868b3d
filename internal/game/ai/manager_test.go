package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/llm"
	"github.com/cory-johannsen/textworld/internal/llm/memoracle"
	"github.com/cory-johannsen/textworld/internal/worldstore"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

type fakeSink struct {
	events []*event.Event
}

func (f *fakeSink) Broadcast(e *event.Event) { f.events = append(f.events, e) }

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		ProactiveIntervalSeconds: 10,
		CooldownSeconds:          3,
		PerceptionWindowSeconds:  30,
		SpatialMemoryTTLHours:    24,
	}
}

func buildTestWorld(t *testing.T) *world.Manager {
	t.Helper()
	hall := world.NewRoom("hall", "Hall", "A quiet hall.")
	hall.Exits[world.North] = "yard"
	yard := world.NewRoom("yard", "Yard", "An open yard.")
	yard.Exits[world.South] = "hall"
	yard.Exits[world.North] = "far"
	farRoom := world.NewRoom("far", "Far Room", "A distant room.")

	mgr, err := world.NewManager([]*world.Room{hall, yard, farRoom})
	require.NoError(t, err)
	return mgr
}

func newTestManager(t *testing.T) (*Manager, *state.CharacterRegistry, *fakeSink, *memoracle.Oracle, worldstore.Store) {
	t.Helper()
	rooms := buildTestWorld(t)
	chars := state.NewCharacterRegistry()
	store := memstore.New()
	sink := &fakeSink{}
	oracle := memoracle.New()
	queue := command.NewQueue()

	m := New(chars, rooms, store.Items(), store.AIAgents(), store.TokenUsage(), queue, sink, oracle, testAIConfig(), zap.NewNop())
	return m, chars, sink, oracle, store
}

func TestProactiveRoundSkipsWithoutHumanObserver(t *testing.T) {
	m, chars, _, oracle, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	m.RegisterAgent(&worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 2})

	oracle.ScriptAction("Guard", &llm.Decision{Action: "say", Arguments: map[string]string{"text": "hello"}})

	m.processAgentProactive(context.Background(), "npc1")
	require.Equal(t, 0, len(oracle.Calls), "no human present, oracle must not be invoked")
}

func TestProactiveRoundEnqueuesDecisionAndAdvancesCooldown(t *testing.T) {
	m, chars, sink, oracle, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	human := &character.Character{ID: "human1", Name: "Player", AccountID: "acct1", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	require.NoError(t, chars.Add(human))

	m.RegisterAgent(&worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 2})

	st, ok := m.stateFor("npc1")
	require.True(t, ok)
	st.perception.Push(&event.Event{Type: event.KindPlayerEntered, OriginRoomID: "hall", Payload: event.PresencePayload{ActorID: "human1", ActorName: "Player"}})

	oracle.ScriptAction("Guard", &llm.Decision{Action: "say", Arguments: map[string]string{"text": "hello"}, Reasoning: "greet the newcomer"})

	m.processAgentProactive(context.Background(), "npc1")

	require.Len(t, oracle.Calls, 1)
	require.Equal(t, "Guard", oracle.Calls[0].Req.AgentName)

	drained := m.queue.Drain(10)
	require.Len(t, drained, 1)
	require.Equal(t, "say hello", drained[0].Text)
	require.Equal(t, command.ActorAI, drained[0].Kind)

	require.False(t, st.lastActionAt.IsZero())

	var sawDecision, sawAction bool
	for _, e := range sink.events {
		switch e.Type {
		case event.KindAIDecision:
			sawDecision = true
		case event.KindAIAction:
			sawAction = true
		}
	}
	require.True(t, sawDecision)
	require.True(t, sawAction)
}

func TestProactiveRoundRejectsMovementBeyondHomeRadius(t *testing.T) {
	m, chars, sink, oracle, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "yard", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	human := &character.Character{ID: "human1", Name: "Player", AccountID: "acct1", CurrentRoomID: "yard", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	require.NoError(t, chars.Add(human))

	// HomeRoomID=hall, MaxRoomsFromHome=0 ⇒ only "hall" itself is in bounds;
	// "yard" is one hop away, so moving anywhere from it is out of bounds
	// except back toward home, and this decision tries to go further out.
	m.RegisterAgent(&worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 0})

	st, ok := m.stateFor("npc1")
	require.True(t, ok)
	st.perception.Push(&event.Event{Type: event.KindPlayerEntered, OriginRoomID: "yard"})

	oracle.ScriptAction("Guard", &llm.Decision{Action: "north", Reasoning: "wander off"})

	m.processAgentProactive(context.Background(), "npc1")

	require.Equal(t, 0, m.queue.Depth())

	var sawError bool
	for _, e := range sink.events {
		if e.Type == event.KindAIError {
			sawError = true
		}
	}
	require.True(t, sawError)
}

func TestProactiveRoundSkipsDuringCooldown(t *testing.T) {
	m, chars, _, oracle, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	human := &character.Character{ID: "human1", Name: "Player", AccountID: "acct1", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	require.NoError(t, chars.Add(human))

	m.RegisterAgent(&worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 2, LastActionAt: time.Now()})

	st, ok := m.stateFor("npc1")
	require.True(t, ok)
	st.lastActionAt = time.Now()
	st.perception.Push(&event.Event{Type: event.KindPlayerEntered, OriginRoomID: "hall"})

	oracle.ScriptAction("Guard", &llm.Decision{Action: "say", Arguments: map[string]string{"text": "hi"}})

	m.processAgentProactive(context.Background(), "npc1")
	require.Equal(t, 0, len(oracle.Calls), "within cooldown window, oracle must not be invoked")
}

func TestConversationRoundUpdatesRelationshipAndHistory(t *testing.T) {
	m, chars, _, oracle, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	human := &character.Character{ID: "human1", Name: "Player", AccountID: "acct1", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	require.NoError(t, chars.Add(human))

	agent := &worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 2}
	m.RegisterAgent(agent)

	oracle.ScriptResponse("Guard", &llm.ResponseDecision{ShouldRespond: true, Response: "Well met."})

	m.conversationRound(context.Background(), conversationTrigger{characterID: "npc1", peerID: "human1", peerName: "Player"})

	drained := m.queue.Drain(10)
	require.Len(t, drained, 1)
	require.Equal(t, "say Well met.", drained[0].Text)

	rel := agent.Relationships["Player"]
	require.Equal(t, 1, rel.Familiarity)
	require.False(t, rel.LastSeen.IsZero())
	require.Len(t, agent.ConversationHistory, 2)
}

func TestDeliverEventWakesConversationPathOnDirectedTell(t *testing.T) {
	m, chars, _, _, _ := newTestManager(t)

	npc := &character.Character{ID: "npc1", Name: "Guard", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	human := &character.Character{ID: "human1", Name: "Player", AccountID: "acct1", CurrentRoomID: "hall", HP: 10, MaxHP: 10, Speed: 10, IsAlive: true}
	require.NoError(t, chars.Add(npc))
	require.NoError(t, chars.Add(human))
	m.RegisterAgent(&worldstore.AIAgent{ID: "agent1", CharacterID: "npc1", HomeRoomID: "hall", MaxRoomsFromHome: 2})

	ok := m.DeliverEvent("npc1", &event.Event{
		Type:    event.KindTell,
		ActorID: "human1",
		Payload: event.DirectedPayload{ActorID: "human1", ActorName: "Player", TargetID: "npc1", TargetName: "Guard", Message: "hi there"},
	})
	require.True(t, ok)

	select {
	case trig := <-m.conversationTriggers:
		require.Equal(t, "npc1", trig.characterID)
		require.Equal(t, "human1", trig.peerID)
	default:
		t.Fatal("expected a conversation trigger to be queued")
	}
}
