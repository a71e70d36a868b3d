package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/world"
)

func TestDirection_Opposite(t *testing.T) {
	cases := map[world.Direction]world.Direction{
		world.North:     world.South,
		world.East:      world.West,
		world.Northeast: world.Southwest,
		world.Northwest: world.Southeast,
		world.Up:        world.Down,
	}
	for d, want := range cases {
		assert.Equal(t, want, d.Opposite(), "opposite of %s", d)
		assert.Equal(t, d, d.Opposite().Opposite(), "opposite must be involutive for %s", d)
	}
	assert.Equal(t, world.Direction(""), world.Direction("portal").Opposite())
}

func TestDirectionAliases_ExpandToCanonical(t *testing.T) {
	for alias, want := range world.DirectionAliases {
		assert.True(t, want.IsStandard(), "alias %s must expand to a standard direction", alias)
	}
}

func TestRoom_SortedExitDirections(t *testing.T) {
	r := world.NewRoom("r1", "Plaza", "A wide plaza.")
	r.Exits[world.South] = "r2"
	r.Exits[world.North] = "r3"
	r.Exits[world.East] = "r4"

	got := r.SortedExitDirections()
	require.Len(t, got, 3)
	assert.Equal(t, []world.Direction{world.East, world.North, world.South}, got)
}

func TestRoom_Validate_RejectsEmptyExitTarget(t *testing.T) {
	r := world.NewRoom("r1", "Plaza", "desc")
	r.Exits[world.North] = ""
	require.Error(t, r.Validate())
}
