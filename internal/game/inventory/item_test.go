package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/inventory"
)

func TestItem_Validate_RejectsBothLocationsSet(t *testing.T) {
	it := &inventory.Item{ID: "i1", RoomID: "r1", CharacterID: "c1"}
	assert.Error(t, it.Validate())
}

func TestItem_Validate_RejectsNoLocation(t *testing.T) {
	it := &inventory.Item{ID: "i1"}
	assert.Error(t, it.Validate())
}

func TestItem_Validate_EquippedRequiresCharacter(t *testing.T) {
	it := &inventory.Item{ID: "i1", RoomID: "r1", IsEquipped: true}
	assert.Error(t, it.Validate())
}

func TestItem_Validate_SpawnPointCannotBeHeld(t *testing.T) {
	it := &inventory.Item{ID: "i1", Type: inventory.TypeSpawnPoint, CharacterID: "c1"}
	assert.Error(t, it.Validate())
}

func TestItem_Validate_OK(t *testing.T) {
	it := &inventory.Item{ID: "i1", RoomID: "r1", Type: inventory.TypeMisc}
	require.NoError(t, it.Validate())
}

func TestItem_IsTakeable(t *testing.T) {
	assert.False(t, (&inventory.Item{Type: inventory.TypeSpawnPoint}).IsTakeable())
	assert.True(t, (&inventory.Item{Type: inventory.TypeWeapon}).IsTakeable())
}

func TestItem_MoveToRoomAndCharacter(t *testing.T) {
	it := &inventory.Item{ID: "i1", CharacterID: "c1", IsEquipped: true}
	it.MoveToRoom("r1")
	assert.Equal(t, "r1", it.RoomID)
	assert.Empty(t, it.CharacterID)
	assert.False(t, it.IsEquipped)

	it.MoveToCharacter("c2")
	assert.Equal(t, "c2", it.CharacterID)
	assert.Empty(t, it.RoomID)
	assert.False(t, it.IsEquipped)
}

func TestEquippedStatTotals(t *testing.T) {
	items := []*inventory.Item{
		{ID: "sword", CharacterID: "c1", IsEquipped: true, Type: inventory.TypeWeapon, Stats: inventory.Stats{Damage: 5}},
		{ID: "shield", CharacterID: "c1", IsEquipped: true, Type: inventory.TypeArmor, Stats: inventory.Stats{Defense: 3}},
		{ID: "dagger", CharacterID: "c1", IsEquipped: false, Type: inventory.TypeWeapon, Stats: inventory.Stats{Damage: 2}},
		{ID: "other", CharacterID: "c2", IsEquipped: true, Type: inventory.TypeWeapon, Stats: inventory.Stats{Damage: 99}},
	}
	weapon, armor := inventory.EquippedStatTotals(items, "c1")
	assert.Equal(t, 5, weapon)
	assert.Equal(t, 3, armor)
}
