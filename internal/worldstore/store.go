package worldstore

import (
	"context"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/game/world"
)

// RoomStore persists the (normally immutable) room graph. Only admin tooling
// (out of scope) ever calls Save/Delete; the simulation core only reads.
type RoomStore interface {
	Get(ctx context.Context, id string) (*world.Room, error)
	List(ctx context.Context) ([]*world.Room, error)
	Save(ctx context.Context, room *world.Room) error
	Delete(ctx context.Context, id string) error
}

// CharacterStore persists Characters. Retired characters are removed from
// List/Get but their id remains valid as a foreign reference from historical
// events and logs.
type CharacterStore interface {
	Get(ctx context.Context, id string) (*character.Character, error)
	List(ctx context.Context) ([]*character.Character, error)
	Save(ctx context.Context, c *character.Character) error
	Delete(ctx context.Context, id string) error
}

// ItemStore persists Items.
type ItemStore interface {
	Get(ctx context.Context, id string) (*inventory.Item, error)
	ListByRoom(ctx context.Context, roomID string) ([]*inventory.Item, error)
	ListByCharacter(ctx context.Context, characterID string) ([]*inventory.Item, error)
	Save(ctx context.Context, item *inventory.Item) error
	Delete(ctx context.Context, id string) error
}

// AIAgentStore persists AIAgent state.
type AIAgentStore interface {
	Get(ctx context.Context, id string) (*AIAgent, error)
	GetByCharacterID(ctx context.Context, characterID string) (*AIAgent, error)
	List(ctx context.Context) ([]*AIAgent, error)
	Save(ctx context.Context, agent *AIAgent) error
}

// EventStore persists the append-only Game Event log.
type EventStore interface {
	Append(ctx context.Context, event *GameEvent) error
	ListSince(ctx context.Context, since int64, limit int) ([]*GameEvent, error)
}

// PlayerLogStore persists the append-only per-character narrative trace.
type PlayerLogStore interface {
	Append(ctx context.Context, log *PlayerLog) error
	ListByCharacter(ctx context.Context, characterID string, limit int) ([]*PlayerLog, error)
}

// TokenUsageStore persists oracle call billing records.
type TokenUsageStore interface {
	Append(ctx context.Context, log *TokenUsageLog) error
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*TokenUsageLog, error)
}

// PreferenceStore persists per-account preference key/value pairs.
type PreferenceStore interface {
	Get(ctx context.Context, accountID string) (map[string]string, error)
	Set(ctx context.Context, accountID string, prefs map[string]string) error
}

// GameStateStore persists the simulation clock across restarts.
type GameStateStore interface {
	Load(ctx context.Context) (GameState, error)
	Save(ctx context.Context, state GameState) error
}

// AccountStore persists Accounts, created lazily on first login.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}

// Store aggregates every repository interface the simulation core depends
// on. cmd/gameserver wires a concrete implementation (memstore or postgres)
// once at startup and passes it down as this single interface.
type Store interface {
	Rooms() RoomStore
	Characters() CharacterStore
	Items() ItemStore
	AIAgents() AIAgentStore
	Events() EventStore
	PlayerLogs() PlayerLogStore
	TokenUsage() TokenUsageStore
	Preferences() PreferenceStore
	GameStateStore() GameStateStore
	Accounts() AccountStore
}
