package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/world"
)

const sampleRoomYAML = `
room:
  id: plaza
  name: The Plaza
  description: |
    A wide cobblestone plaza.
  is_starting: true
  exits:
    north: market
`

func TestLoadRoomFromBytes(t *testing.T) {
	r, err := world.LoadRoomFromBytes([]byte(sampleRoomYAML))
	require.NoError(t, err)
	assert.Equal(t, "plaza", r.ID)
	assert.Equal(t, "The Plaza", r.Name)
	assert.True(t, r.IsStarting)
	assert.Equal(t, "market", r.Exits[world.North])
}

func TestLoadRoomFromBytes_RejectsMissingID(t *testing.T) {
	_, err := world.LoadRoomFromBytes([]byte("room:\n  name: Nowhere\n"))
	require.Error(t, err)
}

func TestLoadRoomsFromDir_EmptyDirErrors(t *testing.T) {
	_, err := world.LoadRoomsFromDir(t.TempDir())
	require.Error(t, err)
}
