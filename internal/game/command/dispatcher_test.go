package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/combat"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

type recordingSink struct {
	events []*event.Event
}

func (r *recordingSink) Broadcast(e *event.Event) { r.events = append(r.events, e) }

type harness struct {
	dispatcher *Dispatcher
	characters *state.CharacterRegistry
	store      *memstore.Store
	sink       *recordingSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	a := world.NewRoom("A", "Room A", "A plain stone room.")
	b := world.NewRoom("B", "Room B", "A dusty cellar.")
	a.Exits[world.North] = "B"
	b.Exits[world.South] = "A"
	rooms, err := world.NewManager([]*world.Room{a, b})
	require.NoError(t, err)

	chars := state.NewCharacterRegistry()
	store := memstore.New()
	listenReg := listening.New()
	sink := &recordingSink{}
	combatEngine := combat.New(chars, store.Items(), sink, nil, 0.7, zap.NewNop())

	d := New(chars, store.Items(), rooms, listenReg, combatEngine, sink, zap.NewNop())
	return &harness{dispatcher: d, characters: chars, store: store, sink: sink}
}

func newPlayer(id, roomID string) *character.Character {
	return &character.Character{
		ID: id, Name: id, AccountID: "acct-" + id, CurrentRoomID: roomID,
		HP: 20, MaxHP: 20, Attack: 10, Defense: 5, Speed: 10,
		IsAlive: true, CreatedAt: time.Now(),
	}
}

func TestDispatchUnknownActorFails(t *testing.T) {
	h := newHarness(t)
	res := h.dispatcher.Dispatch(context.Background(), "ghost", "look")
	require.False(t, res.Success)
}

func TestLookReturnsRoomView(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "look")
	require.True(t, res.Success)
	require.NotNil(t, res.Output)
	require.Equal(t, OutputRoom, res.Output.Kind)
	require.Equal(t, "Room A", res.Output.Room.Name)
	require.Contains(t, res.Output.Room.Exits, "north")
	require.Contains(t, res.Output.Room.Characters, "p2")
	require.NotContains(t, res.Output.Room.Characters, "p1")
}

func TestDirectionalShortcutMovesActorAndEmitsEvents(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "n")
	require.True(t, res.Success)
	require.Len(t, res.Events, 2)
	require.Equal(t, event.KindMovement, res.Events[0].Type)
	require.Equal(t, event.KindRoomDescription, res.Events[1].Type)

	p1, ok := h.characters.Get("p1")
	require.True(t, ok)
	require.Equal(t, "B", p1.CurrentRoomID)
}

func TestGoFailsWhenNoSuchExit(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	res := h.dispatcher.Dispatch(context.Background(), "p1", "go east")
	require.False(t, res.Success)
	require.Equal(t, "You can't go that way", res.Error)
}

func TestSayRequiresMessage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	res := h.dispatcher.Dispatch(context.Background(), "p1", "say")
	require.False(t, res.Success)
}

func TestSayEmitsSpeechEvent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	res := h.dispatcher.Dispatch(context.Background(), "p1", "say hello there")
	require.True(t, res.Success)
	require.Len(t, res.Events, 1)
	payload := res.Events[0].Payload.(event.SpeechPayload)
	require.Equal(t, "hello there", payload.Message)
}

func TestTellObfuscationIsHandledByFormatterNotDispatcher(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", `tell p2 keep it secret`)
	require.True(t, res.Success)
	require.Len(t, res.Events, 1)
	payload := res.Events[0].Payload.(event.DirectedPayload)
	require.Equal(t, "p2", payload.TargetID)
	require.Equal(t, "keep it secret", payload.Message)
}

func TestWhisperSetsPrivateVisibilityAndExplicitRecipients(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "whisper p2 shh")
	require.True(t, res.Success)
	require.ElementsMatch(t, []string{"p1", "p2"}, res.Events[0].ExplicitRecipients)
}

func TestTakeDropRoundTrip(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	ctx := context.Background()
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "sword-1", Name: "Rusty Sword", Type: inventory.TypeWeapon, RoomID: "A", Stats: inventory.Stats{Damage: 3}}))

	res := h.dispatcher.Dispatch(ctx, "p1", "take rusty sword")
	require.True(t, res.Success)

	held, err := h.store.Items().ListByCharacter(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, held, 1)

	res = h.dispatcher.Dispatch(ctx, "p1", "drop rusty sword")
	require.True(t, res.Success)
	held, err = h.store.Items().ListByCharacter(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, held)
}

func TestSpawnPointItemsAreNotTakeable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	ctx := context.Background()
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "spawn-1", Name: "a glowing sigil", Type: inventory.TypeSpawnPoint, RoomID: "A"}))

	res := h.dispatcher.Dispatch(ctx, "p1", "take glowing sigil")
	require.False(t, res.Success)
}

func TestEquipUnequipRecomputesStats(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	ctx := context.Background()
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "sword-1", Name: "Sword", Type: inventory.TypeWeapon, CharacterID: "p1", Stats: inventory.Stats{Damage: 7}}))

	res := h.dispatcher.Dispatch(ctx, "p1", "equip sword")
	require.True(t, res.Success)
	p1, ok := h.characters.Get("p1")
	require.True(t, ok)
	require.Equal(t, 17, p1.Attack) // 10 + 7

	res = h.dispatcher.Dispatch(ctx, "p1", "unequip sword")
	require.True(t, res.Success)
	p1, ok = h.characters.Get("p1")
	require.True(t, ok)
	require.Equal(t, 10, p1.Attack)
}

func TestEquipReplacesExistingWeaponOfSameSlot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	ctx := context.Background()
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "dagger", Name: "Dagger", Type: inventory.TypeWeapon, CharacterID: "p1", IsEquipped: true, Stats: inventory.Stats{Damage: 2}}))
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "axe", Name: "Axe", Type: inventory.TypeWeapon, CharacterID: "p1", Stats: inventory.Stats{Damage: 9}}))

	res := h.dispatcher.Dispatch(ctx, "p1", "equip axe")
	require.True(t, res.Success)

	dagger, err := h.store.Items().Get(ctx, "dagger")
	require.NoError(t, err)
	require.False(t, dagger.IsEquipped)

	p1, ok := h.characters.Get("p1")
	require.True(t, ok)
	require.Equal(t, 19, p1.Attack) // 10 + 9, dagger no longer counted
}

func TestExamineResolvesItemBeforeCharacter(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	ctx := context.Background()
	require.NoError(t, h.store.Items().Save(ctx, &inventory.Item{ID: "i1", Name: "Lantern", Description: "A brass lantern.", Type: inventory.TypeMisc, RoomID: "A"}))

	res := h.dispatcher.Dispatch(ctx, "p1", "examine lantern")
	require.True(t, res.Success)
	require.Equal(t, OutputItemDetail, res.Output.Kind)
	require.Equal(t, "Lantern", res.Output.ItemDetail.Name)
}

func TestExamineCharacterReturnsHealthWord(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	wounded := newPlayer("p2", "A")
	wounded.HP = 5 // 25% of 20
	require.NoError(t, h.characters.Add(wounded))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "examine p2")
	require.True(t, res.Success)
	require.Equal(t, OutputCharacterDetail, res.Output.Kind)
	require.Equal(t, "badly wounded", res.Output.CharacterDetail.HealthWord)
}

func TestAttackStartsCombatAndEmitsCombatStart(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "kill p2")
	require.True(t, res.Success)
	require.Equal(t, "You attack p2!", res.Output.SystemMessage)
	require.Len(t, h.sink.events, 1)
	require.Equal(t, event.KindCombatStart, h.sink.events[0].Type)
}

func TestAttackFailsAgainstSelf(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	res := h.dispatcher.Dispatch(context.Background(), "p1", "attack p1")
	require.False(t, res.Success)
}

func TestStopReportsWhichWereStopped(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))
	_ = h.dispatcher.Dispatch(context.Background(), "p1", "attack p2")

	res := h.dispatcher.Dispatch(context.Background(), "p1", "stop")
	require.True(t, res.Success)
	require.Equal(t, "You stop fighting.", res.Output.SystemMessage)
}

func TestStopWhenNeitherFightingNorListeningReportsNothingToStop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))

	res := h.dispatcher.Dispatch(context.Background(), "p1", "stop")
	require.True(t, res.Success)
	require.Contains(t, res.Output.SystemMessage, "aren't fighting or listening")
}

func TestAttackFailsWhileEavesdropping(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p3", "A")))
	_ = h.dispatcher.Dispatch(context.Background(), "p1", "listen p2")

	res := h.dispatcher.Dispatch(context.Background(), "p1", "attack p3")
	require.False(t, res.Success)
	require.Contains(t, res.Error, "can't fight while trying to eavesdrop")
}

func TestListenStopClearsSubscription(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))
	_ = h.dispatcher.Dispatch(context.Background(), "p1", "listen p2")

	res := h.dispatcher.Dispatch(context.Background(), "p1", "listen stop")
	require.True(t, res.Success)
}

func TestListenFailsWhileInCombat(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	require.NoError(t, h.characters.Add(newPlayer("p2", "A")))
	_ = h.dispatcher.Dispatch(context.Background(), "p1", "attack p2")

	res := h.dispatcher.Dispatch(context.Background(), "p1", "listen p2")
	require.False(t, res.Success)
}

func TestUnknownCommandFails(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.characters.Add(newPlayer("p1", "A")))
	res := h.dispatcher.Dispatch(context.Background(), "p1", "xyzzy")
	require.False(t, res.Success)
	require.Equal(t, "Unknown command", res.Error)
}
