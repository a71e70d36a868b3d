package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicateCharacter(t *testing.T) {
	m := NewManager()
	_, err := m.Register("char1", 16)
	require.NoError(t, err)

	_, err = m.Register("char1", 16)
	require.Error(t, err)
}

func TestUnregisterClosesEntity(t *testing.T) {
	m := NewManager()
	entity, err := m.Register("char1", 16)
	require.NoError(t, err)

	m.Unregister("char1")
	require.True(t, entity.IsClosed())

	_, ok := m.Get("char1")
	require.False(t, ok)
}

func TestCountReflectsLiveRegistrations(t *testing.T) {
	m := NewManager()
	require.Equal(t, 0, m.Count())
	_, err := m.Register("char1", 16)
	require.NoError(t, err)
	_, err = m.Register("char2", 16)
	require.NoError(t, err)
	require.Equal(t, 2, m.Count())

	m.Unregister("char1")
	require.Equal(t, 1, m.Count())
}
