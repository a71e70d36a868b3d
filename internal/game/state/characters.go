// Package state holds the Game Loop's live in-memory registry: the
// authoritative, tick-mutated view of Characters layered on top of the
// immutable room graph (Items are read and written through the World Store's
// ItemStore directly). Persistence (internal/worldstore) is the
// system of record; these registries are the cache rebuilt at startup and
// mutated exclusively by the single Game Loop goroutine.
package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/textworld/internal/game/character"
)

// CharacterRegistry indexes live Characters by id and by current room.
//
// Invariant: every id present in byRoom[roomID] has byID[id].CurrentRoomID
// == roomID.
type CharacterRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*character.Character
	byRoom map[string]map[string]bool
}

// NewCharacterRegistry creates an empty CharacterRegistry.
func NewCharacterRegistry() *CharacterRegistry {
	return &CharacterRegistry{
		byID:   make(map[string]*character.Character),
		byRoom: make(map[string]map[string]bool),
	}
}

// Add inserts or replaces a Character, indexing it by its CurrentRoomID.
//
// Precondition: c must be non-nil and c.ID must be non-empty.
func (r *CharacterRegistry) Add(c *character.Character) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("state.CharacterRegistry.Add: character must have a non-empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[c.ID]; ok {
		r.unindexLocked(existing)
	}
	r.byID[c.ID] = c
	r.indexLocked(c)
	return nil
}

func (r *CharacterRegistry) indexLocked(c *character.Character) {
	if c.CurrentRoomID == "" {
		return
	}
	if r.byRoom[c.CurrentRoomID] == nil {
		r.byRoom[c.CurrentRoomID] = make(map[string]bool)
	}
	r.byRoom[c.CurrentRoomID][c.ID] = true
}

func (r *CharacterRegistry) unindexLocked(c *character.Character) {
	if rs, ok := r.byRoom[c.CurrentRoomID]; ok {
		delete(rs, c.ID)
		if len(rs) == 0 {
			delete(r.byRoom, c.CurrentRoomID)
		}
	}
}

// Remove deletes a Character from the registry (used on retirement/death
// cleanup of NPC corpses); player characters are typically kept, only their
// room index updated, across disconnects.
func (r *CharacterRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return
	}
	r.unindexLocked(c)
	delete(r.byID, id)
}

// Get returns the Character with the given id.
func (r *CharacterRegistry) Get(id string) (*character.Character, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// InRoom returns a snapshot of every Character currently in roomID.
//
// Postcondition: returns a non-nil slice (may be empty).
func (r *CharacterRegistry) InRoom(roomID string) []*character.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byRoom[roomID]
	if !ok {
		return []*character.Character{}
	}
	out := make([]*character.Character, 0, len(ids))
	for id := range ids {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Move relocates a Character to newRoomID, updating the room index.
//
// Precondition: id must identify a registered Character.
func (r *CharacterRegistry) Move(id, newRoomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("state.CharacterRegistry.Move: character %q not found", id)
	}
	r.unindexLocked(c)
	c.CurrentRoomID = newRoomID
	r.indexLocked(c)
	return nil
}

// FindInRoom returns the Character in roomID with the shortest Name that has
// target as a case-insensitive prefix, excluding excludeID (typically the
// actor performing the lookup). Dead characters are not excluded. Returns nil
// if no match is found.
func (r *CharacterRegistry) FindInRoom(roomID, target, excludeID string) *character.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byRoom[roomID]
	if !ok {
		return nil
	}
	lower := strings.ToLower(target)
	var best *character.Character
	for id := range ids {
		if id == excludeID {
			continue
		}
		c, ok := r.byID[id]
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(c.Name), lower) {
			if best == nil || len(c.Name) < len(best.Name) {
				best = c
			}
		}
	}
	return best
}

// All returns a snapshot of every registered Character.
func (r *CharacterRegistry) All() []*character.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*character.Character, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}
