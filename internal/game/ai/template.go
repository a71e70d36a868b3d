// Package ai implements the AI Agent Manager of spec.md §4.7: a
// perception-queue-per-agent, oracle-driven decision loop that synthesizes
// commands onto the shared Command Queue instead of ever executing them
// in-tick itself. Grounded on the teacher's deleted HTN agent manager's
// RWMutex-guarded-registry/ticker-loop shape, with the HTN planner itself
// replaced wholesale by an llm.Oracle call.
package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// RelationshipSeed is the YAML-authored starting point for one of a
// Template's relationships, converted to a worldstore.Relationship at load
// time.
type RelationshipSeed struct {
	Sentiment   int    `yaml:"sentiment"`
	Trust       int    `yaml:"trust"`
	Familiarity int    `yaml:"familiarity"`
	Role        string `yaml:"role"`
}

// Template is the authored definition of one AI Agent, the NPC-side
// counterpart to world.Room's YAML content, following the same
// directory-of-files convention.
type Template struct {
	ID               string
	Name             string
	Description      string
	HomeRoomID       string
	MaxRoomsFromHome int
	SystemPrompt     string
	HP               int
	MaxHP            int
	Attack           int
	Defense          int
	Speed            int
	Relationships    map[string]RelationshipSeed
}

type yamlAgentFile struct {
	Agent yamlAgent `yaml:"agent"`
}

type yamlAgent struct {
	ID               string                      `yaml:"id"`
	Name             string                      `yaml:"name"`
	Description      string                      `yaml:"description"`
	HomeRoomID       string                      `yaml:"home_room_id"`
	MaxRoomsFromHome int                         `yaml:"max_rooms_from_home"`
	SystemPrompt     string                      `yaml:"system_prompt"`
	HP               int                         `yaml:"hp"`
	Attack           int                         `yaml:"attack"`
	Defense          int                         `yaml:"defense"`
	Speed            int                         `yaml:"speed"`
	Relationships    map[string]RelationshipSeed `yaml:"relationships"`
}

// LoadTemplateFromBytes parses a single agent template from YAML bytes.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var file yamlAgentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing agent template YAML: %w", err)
	}
	ya := file.Agent
	if ya.ID == "" {
		return nil, fmt.Errorf("agent template: id must not be empty")
	}
	if ya.Name == "" {
		return nil, fmt.Errorf("agent template %s: name must not be empty", ya.ID)
	}
	if ya.HomeRoomID == "" {
		return nil, fmt.Errorf("agent template %s: home_room_id must not be empty", ya.ID)
	}
	if ya.Speed <= 0 {
		return nil, fmt.Errorf("agent template %s: speed must be > 0", ya.ID)
	}
	return &Template{
		ID:               ya.ID,
		Name:             ya.Name,
		Description:      strings.TrimSpace(ya.Description),
		HomeRoomID:       ya.HomeRoomID,
		MaxRoomsFromHome: ya.MaxRoomsFromHome,
		SystemPrompt:     strings.TrimSpace(ya.SystemPrompt),
		HP:               ya.HP,
		MaxHP:            ya.HP,
		Attack:           ya.Attack,
		Defense:          ya.Defense,
		Speed:            ya.Speed,
		Relationships:    ya.Relationships,
	}, nil
}

// LoadTemplatesFromDir loads every *.yaml/*.yml file in dir as a Template,
// mirroring world.LoadRoomsFromDir's directory-of-content-files convention.
func LoadTemplatesFromDir(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading agent template directory %s: %w", dir, err)
	}

	var templates []*Template
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
			return nil, fmt.Errorf("reading agent template file %s: %w", name, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading agent template from %s: %w", name, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// ToRelationships converts a Template's authored seeds into the persisted
// worldstore.Relationship map used to initialize a new AIAgent.
func (t *Template) ToRelationships(now time.Time) map[string]worldstore.Relationship {
	if len(t.Relationships) == 0 {
		return nil
	}
	out := make(map[string]worldstore.Relationship, len(t.Relationships))
	for peer, seed := range t.Relationships {
		out[peer] = worldstore.Relationship{
			Sentiment:   seed.Sentiment,
			Trust:       seed.Trust,
			Familiarity: seed.Familiarity,
			LastSeen:    now,
			Role:        seed.Role,
		}
	}
	return out
}
