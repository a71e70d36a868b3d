package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlRoomFile is the top-level YAML structure for a room content file.
type yamlRoomFile struct {
	Room yamlRoom `yaml:"room"`
}

type yamlRoom struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	IsStarting  bool              `yaml:"is_starting"`
	Exits       map[string]string `yaml:"exits"`
}

// LoadRoomFromBytes parses a single room from YAML bytes.
func LoadRoomFromBytes(data []byte) (*Room, error) {
	var file yamlRoomFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing room YAML: %w", err)
	}
	yr := file.Room
	room := NewRoom(yr.ID, yr.Name, strings.TrimSpace(yr.Description))
	room.IsStarting = yr.IsStarting
	for dir, target := range yr.Exits {
		room.Exits[Direction(dir)] = target
	}
	if err := room.Validate(); err != nil {
		return nil, fmt.Errorf("validating room: %w", err)
	}
	return room, nil
}

// LoadRoomsFromDir loads every *.yaml/*.yml file in dir as a Room.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns all parsed rooms, or the first error encountered.
// Exit target validation (do all exits resolve?) is deferred to
// Manager.NewManager, which sees the whole graph at once.
func LoadRoomsFromDir(dir string) ([]*Room, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading room directory %s: %w", dir, err)
	}

	var rooms []*Room
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading room file %s: %w", name, err)
		}
		room, err := LoadRoomFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading room from %s: %w", name, err)
		}
		rooms = append(rooms, room)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no room files found in %s", dir)
	}
	return rooms, nil
}
