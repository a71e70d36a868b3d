package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

func TestRoomStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	r := world.NewRoom("r1", "Plaza", "desc")
	require.NoError(t, s.Rooms().Save(ctx, r))

	got, err := s.Rooms().Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Plaza", got.Name)

	list, err := s.Rooms().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRoomStore_GetMissing(t *testing.T) {
	s := memstore.New()
	_, err := s.Rooms().Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestCharacterStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	c := &character.Character{ID: "c1", Name: "Hero", CurrentRoomID: "r1", HP: 10, MaxHP: 10, Speed: 5, IsAlive: true}
	require.NoError(t, s.Characters().Save(ctx, c))

	got, err := s.Characters().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hero", got.Name)
}

func TestItemStore_ListByRoomAndCharacter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	roomItem := &inventory.Item{ID: "i1", Type: inventory.TypeMisc, RoomID: "r1"}
	heldItem := &inventory.Item{ID: "i2", Type: inventory.TypeWeapon, CharacterID: "c1"}
	require.NoError(t, s.Items().Save(ctx, roomItem))
	require.NoError(t, s.Items().Save(ctx, heldItem))

	byRoom, err := s.Items().ListByRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)

	byChar, err := s.Items().ListByCharacter(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byChar, 1)
}

func TestAgentStore_GetByCharacterID(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	agent := &worldstore.AIAgent{ID: "a1", CharacterID: "c1"}
	require.NoError(t, s.AIAgents().Save(ctx, agent))

	got, err := s.AIAgents().GetByCharacterID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
}

func TestEventStore_AppendAndListSince(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Events().Append(ctx, &worldstore.GameEvent{ID: "e1", Type: "speech"}))

	events, err := s.Events().ListSince(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPlayerLogStore_AppendAndListByCharacter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.PlayerLogs().Append(ctx, &worldstore.PlayerLog{CharacterID: "c1", Kind: worldstore.LogKindCommand, Payload: "look"}))
	require.NoError(t, s.PlayerLogs().Append(ctx, &worldstore.PlayerLog{CharacterID: "c1", Kind: worldstore.LogKindOutput, Payload: "A room."}))

	logs, err := s.PlayerLogs().ListByCharacter(ctx, "c1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestPreferenceStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Preferences().Set(ctx, "acct1", map[string]string{"theme": "dark"}))

	prefs, err := s.Preferences().Get(ctx, "acct1")
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs["theme"])
}

func TestGameStateStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.GameStateStore().Save(ctx, worldstore.GameState{IsPaused: true, GameTime: 42}))

	state, err := s.GameStateStore().Load(ctx)
	require.NoError(t, err)
	assert.True(t, state.IsPaused)
	assert.Equal(t, int64(42), state.GameTime)
}

func TestAccountStore_SaveGetByUsername(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Accounts().Save(ctx, &worldstore.Account{ID: "acc1", Username: "alice"}))

	got, err := s.Accounts().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "acc1", got.ID)
}
