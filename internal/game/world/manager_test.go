package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/world"
)

func threeRoomChain() []*world.Room {
	a := world.NewRoom("a", "Room A", "desc a")
	a.IsStarting = true
	b := world.NewRoom("b", "Room B", "desc b")
	c := world.NewRoom("c", "Room C", "desc c")
	a.Exits[world.North] = "b"
	b.Exits[world.South] = "a"
	b.Exits[world.North] = "c"
	c.Exits[world.South] = "b"
	return []*world.Room{a, b, c}
}

func TestNewManager_DetectsDanglingExit(t *testing.T) {
	a := world.NewRoom("a", "Room A", "desc")
	a.Exits[world.North] = "nowhere"
	_, err := world.NewManager([]*world.Room{a})
	require.Error(t, err)
}

func TestNewManager_DetectsDuplicateID(t *testing.T) {
	a1 := world.NewRoom("a", "Room A", "desc")
	a2 := world.NewRoom("a", "Room A2", "desc")
	_, err := world.NewManager([]*world.Room{a1, a2})
	require.Error(t, err)
}

func TestManager_Navigate(t *testing.T) {
	mgr, err := world.NewManager(threeRoomChain())
	require.NoError(t, err)

	dest, err := mgr.Navigate("a", world.North)
	require.NoError(t, err)
	assert.Equal(t, "b", dest.ID)

	_, err = mgr.Navigate("a", world.East)
	assert.Error(t, err)
}

func TestManager_StartRoom(t *testing.T) {
	mgr, err := world.NewManager(threeRoomChain())
	require.NoError(t, err)
	require.NotNil(t, mgr.StartRoom())
	assert.Equal(t, "a", mgr.StartRoom().ID)
}

func TestManager_RoomsWithinHops(t *testing.T) {
	mgr, err := world.NewManager(threeRoomChain())
	require.NoError(t, err)

	within0 := mgr.RoomsWithinHops("a", 0)
	assert.Equal(t, map[string]int{"a": 0}, within0)

	within1 := mgr.RoomsWithinHops("a", 1)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, within1)

	within2 := mgr.RoomsWithinHops("a", 2)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, within2)
}
