// Package character defines the simulated actor model shared by players and
// AI-controlled non-player characters.
package character

import (
	"fmt"
	"time"
)

// Character is a single actor in the world, controlled either by a player
// account or by an AI Agent (when AccountID is empty).
type Character struct {
	ID            string
	Name          string
	Description   string
	AccountID     string // empty ⇒ NPC
	CurrentRoomID string
	SpawnPointID  string
	HP            int
	MaxHP         int
	Attack        int
	Defense       int
	Speed         int
	IsAlive       bool
	IsDead        bool
	DiedAt        *time.Time
	LastActionAt  time.Time
	CreatedAt     time.Time

	// Role gates the thin admin surface only; core game logic never reads it.
	Role string
}

// IsNPC reports whether this Character is AI-controlled.
func (c *Character) IsNPC() bool {
	return c.AccountID == ""
}

// Roles a Character's Role field may hold.
const (
	RolePlayer = "player"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is one of the recognized privilege levels.
func ValidRole(role string) bool {
	switch role {
	case RolePlayer, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Validate checks the Character's structural invariants.
//
// Postcondition: returns an error describing the first invariant violation
// found, or nil if there is none.
func (c *Character) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("character: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("character %s: name must not be empty", c.ID)
	}
	if c.HP < 0 || c.HP > c.MaxHP {
		return fmt.Errorf("character %s: hp %d out of range [0,%d]", c.ID, c.HP, c.MaxHP)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("character %s: speed must be > 0, got %d", c.ID, c.Speed)
	}
	if c.IsAlive == c.IsDead {
		return fmt.Errorf("character %s: is-alive must equal !is-dead", c.ID)
	}
	if c.IsAlive && c.CurrentRoomID == "" {
		return fmt.Errorf("character %s: living character must have a room", c.ID)
	}
	return nil
}

// ApplyDamage subtracts damage from HP, clamping at zero, and transitions the
// character to dead within the same call if HP reaches zero.
//
// Precondition: damage >= 0.
// Postcondition: 0 <= HP <= MaxHP; if HP becomes 0, IsAlive=false, IsDead=true,
// DiedAt is set to now.
func (c *Character) ApplyDamage(damage int, now time.Time) {
	if damage < 0 {
		damage = 0
	}
	c.HP -= damage
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP == 0 && c.IsAlive {
		c.IsAlive = false
		c.IsDead = true
		c.DiedAt = &now
	}
}

// HealthWord buckets the character's HP fraction into the health-word used by
// the examine command.
func (c *Character) HealthWord() string {
	if c.IsDead {
		return "dead"
	}
	if c.MaxHP <= 0 {
		return "perfect"
	}
	frac := float64(c.HP) / float64(c.MaxHP)
	switch {
	case frac >= 1.0:
		return "perfect"
	case frac >= 0.75:
		return "slightly scratched"
	case frac >= 0.5:
		return "wounded"
	case frac >= 0.25:
		return "badly wounded"
	case frac > 0:
		return "near death"
	default:
		return "dead"
	}
}

// RecomputeStats recalculates Attack and Defense from equipped item
// contributions per the stat-recomputation invariant:
// attack = 10 + Σ weapon.damage, defense = 5 + Σ armor.defense.
func (c *Character) RecomputeStats(weaponDamage, armorDefense int) {
	c.Attack = 10 + weaponDamage
	c.Defense = 5 + armorDefense
}
