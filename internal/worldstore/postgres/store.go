package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// Store aggregates every repository into a single worldstore.Store
// implementation backed by one connection pool.
type Store struct {
	rooms      *RoomRepository
	characters *CharacterRepository
	items      *ItemRepository
	agents     *AIAgentRepository
	events     *EventRepository
	logs       *PlayerLogRepository
	usage      *TokenUsageRepository
	prefs      *PreferenceRepository
	state      *GameStateRepository
	accounts   *AccountRepository
}

// NewStore builds a Store from an open connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		rooms:      NewRoomRepository(db),
		characters: NewCharacterRepository(db),
		items:      NewItemRepository(db),
		agents:     NewAIAgentRepository(db),
		events:     NewEventRepository(db),
		logs:       NewPlayerLogRepository(db),
		usage:      NewTokenUsageRepository(db),
		prefs:      NewPreferenceRepository(db),
		state:      NewGameStateRepository(db),
		accounts:   NewAccountRepository(db),
	}
}

func (s *Store) Rooms() worldstore.RoomStore              { return s.rooms }
func (s *Store) Characters() worldstore.CharacterStore    { return s.characters }
func (s *Store) Items() worldstore.ItemStore              { return s.items }
func (s *Store) AIAgents() worldstore.AIAgentStore        { return s.agents }
func (s *Store) Events() worldstore.EventStore            { return s.events }
func (s *Store) PlayerLogs() worldstore.PlayerLogStore    { return s.logs }
func (s *Store) TokenUsage() worldstore.TokenUsageStore   { return s.usage }
func (s *Store) Preferences() worldstore.PreferenceStore  { return s.prefs }
func (s *Store) GameStateStore() worldstore.GameStateStore { return s.state }
func (s *Store) Accounts() worldstore.AccountStore        { return s.accounts }

var _ worldstore.Store = (*Store)(nil)
