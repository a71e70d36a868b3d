package world

import (
	"fmt"
	"sync"
)

// Manager provides thread-safe access to the loaded room graph. Rooms are
// immutable during normal simulation — only admin tooling (out of scope)
// mutates them — so reads vastly outnumber writes and an RWMutex keeps the
// common path lock-free of contention.
type Manager struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	startRoom string
}

// NewManager builds a Manager from a set of rooms.
//
// Precondition: rooms must contain at least one entry.
// Postcondition: Returns a Manager with all rooms indexed by ID, or an error
// on a duplicate ID or a dangling exit target.
func NewManager(rooms []*Room) (*Manager, error) {
	m := &Manager{rooms: make(map[string]*Room, len(rooms))}
	for _, r := range rooms {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.rooms[r.ID]; exists {
			return nil, fmt.Errorf("duplicate room ID %q", r.ID)
		}
		m.rooms[r.ID] = r
		if r.IsStarting && m.startRoom == "" {
			m.startRoom = r.ID
		}
	}
	if len(m.rooms) == 0 {
		return nil, fmt.Errorf("world: at least one room is required")
	}
	if m.startRoom == "" {
		// Fall back to an arbitrary deterministic pick so the world always
		// has a usable start room even if content omitted is_starting.
		for _, r := range rooms {
			m.startRoom = r.ID
			break
		}
	}
	if err := m.validateExits(); err != nil {
		return nil, err
	}
	return m, nil
}

// validateExits confirms every exit target resolves to a known room.
func (m *Manager) validateExits() error {
	for _, room := range m.rooms {
		for dir, target := range room.Exits {
			if _, ok := m.rooms[target]; !ok {
				return fmt.Errorf("room %q: exit %q targets unknown room %q", room.ID, dir, target)
			}
		}
	}
	return nil
}

// GetRoom returns the room with the given ID.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Navigate resolves movement from a room in a direction.
//
// Postcondition: Returns the destination room, or an error if no such exit
// exists or the target room has since vanished.
func (m *Manager) Navigate(fromRoomID string, dir Direction) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from, ok := m.rooms[fromRoomID]
	if !ok {
		return nil, fmt.Errorf("room %q not found", fromRoomID)
	}
	targetID, ok := from.Exits[dir]
	if !ok {
		return nil, fmt.Errorf("no exit %q from %q", dir, fromRoomID)
	}
	target, ok := m.rooms[targetID]
	if !ok {
		return nil, fmt.Errorf("exit %q from %q targets unknown room %q", dir, fromRoomID, targetID)
	}
	return target, nil
}

// StartRoom returns the default spawn room.
func (m *Manager) StartRoom() *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.startRoom == "" {
		return nil
	}
	return m.rooms[m.startRoom]
}

// RoomCount returns the total number of rooms in the world.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RoomsWithinHops returns the set of room IDs reachable from fromRoomID in at
// most maxHops exit traversals (treating exits as directed edges), mapped to
// the minimum number of hops to reach them. fromRoomID itself is included at
// distance 0. This single BFS implementation backs both the Event
// Propagator's range-based recipient computation and the AI Agent Manager's
// spatial-memory refresh.
//
// Precondition: maxHops >= 0.
func (m *Manager) RoomsWithinHops(fromRoomID string, maxHops int) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	distances := map[string]int{fromRoomID: 0}
	if _, ok := m.rooms[fromRoomID]; !ok {
		return distances
	}
	frontier := []string{fromRoomID}
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, roomID := range frontier {
			room, ok := m.rooms[roomID]
			if !ok {
				continue
			}
			for _, targetID := range room.Exits {
				if _, seen := distances[targetID]; seen {
					continue
				}
				distances[targetID] = hop + 1
				next = append(next, targetID)
			}
		}
		frontier = next
	}
	return distances
}

// AllRooms returns every loaded room. The returned slice is a fresh copy;
// mutating it does not affect the Manager.
func (m *Manager) AllRooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}
