package character_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/game/character"
)

func validCharacter() *character.Character {
	return &character.Character{
		ID:            "c1",
		Name:          "Test Dummy",
		CurrentRoomID: "room1",
		HP:            10,
		MaxHP:         10,
		Speed:         10,
		IsAlive:       true,
	}
}

func TestCharacter_Validate_OK(t *testing.T) {
	require.NoError(t, validCharacter().Validate())
}

func TestCharacter_Validate_RejectsHPOutOfRange(t *testing.T) {
	c := validCharacter()
	c.HP = 20
	assert.Error(t, c.Validate())
}

func TestCharacter_Validate_RejectsZeroSpeed(t *testing.T) {
	c := validCharacter()
	c.Speed = 0
	assert.Error(t, c.Validate())
}

func TestCharacter_IsNPC(t *testing.T) {
	c := validCharacter()
	c.AccountID = "acct1"
	assert.False(t, c.IsNPC())
	c.AccountID = ""
	assert.True(t, c.IsNPC())
}

func TestCharacter_ApplyDamage_ClampsAtZeroAndKills(t *testing.T) {
	c := validCharacter()
	now := time.Now()
	c.ApplyDamage(15, now)
	assert.Equal(t, 0, c.HP)
	assert.False(t, c.IsAlive)
	assert.True(t, c.IsDead)
	require.NotNil(t, c.DiedAt)
	assert.Equal(t, now, *c.DiedAt)
}

func TestCharacter_ApplyDamage_PartialSurvives(t *testing.T) {
	c := validCharacter()
	c.ApplyDamage(4, time.Now())
	assert.Equal(t, 6, c.HP)
	assert.True(t, c.IsAlive)
}

func TestCharacter_HealthWord_Buckets(t *testing.T) {
	cases := []struct {
		hp, maxHP int
		want      string
	}{
		{10, 10, "perfect"},
		{8, 10, "slightly scratched"},
		{5, 10, "wounded"},
		{3, 10, "badly wounded"},
		{1, 10, "near death"},
		{0, 10, "dead"},
	}
	for _, tc := range cases {
		c := validCharacter()
		c.HP = tc.hp
		if tc.hp == 0 {
			c.IsAlive = false
			c.IsDead = true
		}
		assert.Equal(t, tc.want, c.HealthWord(), "hp=%d maxHP=%d", tc.hp, tc.maxHP)
	}
}

func TestCharacter_RecomputeStats(t *testing.T) {
	c := validCharacter()
	c.RecomputeStats(5, 3)
	assert.Equal(t, 15, c.Attack)
	assert.Equal(t, 8, c.Defense)
}
