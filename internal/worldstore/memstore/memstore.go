// Package memstore is an in-memory implementation of internal/worldstore,
// used for unit tests and the devserver binary per the Design Note in
// spec.md §9: persistence is represented as a repository interface so the
// core is unit-testable without a real database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// Store is a sync.RWMutex-guarded in-memory implementation of
// worldstore.Store, matching the teacher's map-plus-RWMutex concurrency
// idiom used throughout internal/game/world.
type Store struct {
	rooms      *roomStore
	characters *characterStore
	items      *itemStore
	agents     *agentStore
	events     *eventStore
	logs       *playerLogStore
	usage      *tokenUsageStore
	prefs      *preferenceStore
	state      *gameStateStore
	accounts   *accountStore
}

// New builds an empty in-memory Store.
func New() *Store {
	return &Store{
		rooms:      &roomStore{data: map[string]*world.Room{}},
		characters: &characterStore{data: map[string]*character.Character{}},
		items:      &itemStore{data: map[string]*inventory.Item{}},
		agents:     &agentStore{data: map[string]*worldstore.AIAgent{}},
		events:     &eventStore{},
		logs:       &playerLogStore{byCharacter: map[string][]*worldstore.PlayerLog{}},
		usage:      &tokenUsageStore{byAgent: map[string][]*worldstore.TokenUsageLog{}},
		prefs:      &preferenceStore{data: map[string]map[string]string{}},
		state:      &gameStateStore{},
		accounts:   &accountStore{byUsername: map[string]*worldstore.Account{}},
	}
}

func (s *Store) Rooms() worldstore.RoomStore                   { return s.rooms }
func (s *Store) Characters() worldstore.CharacterStore         { return s.characters }
func (s *Store) Items() worldstore.ItemStore                   { return s.items }
func (s *Store) AIAgents() worldstore.AIAgentStore              { return s.agents }
func (s *Store) Events() worldstore.EventStore                 { return s.events }
func (s *Store) PlayerLogs() worldstore.PlayerLogStore         { return s.logs }
func (s *Store) TokenUsage() worldstore.TokenUsageStore         { return s.usage }
func (s *Store) Preferences() worldstore.PreferenceStore       { return s.prefs }
func (s *Store) GameStateStore() worldstore.GameStateStore      { return s.state }
func (s *Store) Accounts() worldstore.AccountStore              { return s.accounts }

// --- rooms ---

type roomStore struct {
	mu   sync.RWMutex
	data map[string]*world.Room
}

func (r *roomStore) Get(_ context.Context, id string) (*world.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("room %q not found", id)
	}
	return room, nil
}

func (r *roomStore) List(_ context.Context) ([]*world.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*world.Room, 0, len(r.data))
	for _, room := range r.data {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *roomStore) Save(_ context.Context, room *world.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[room.ID] = room
	return nil
}

func (r *roomStore) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

// --- characters ---

type characterStore struct {
	mu   sync.RWMutex
	data map[string]*character.Character
}

func (c *characterStore) Get(_ context.Context, id string) (*character.Character, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.data[id]
	if !ok {
		return nil, fmt.Errorf("character %q not found", id)
	}
	return ch, nil
}

func (c *characterStore) List(_ context.Context) ([]*character.Character, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*character.Character, 0, len(c.data))
	for _, ch := range c.data {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *characterStore) Save(_ context.Context, ch *character.Character) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[ch.ID] = ch
	return nil
}

func (c *characterStore) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

// --- items ---

type itemStore struct {
	mu   sync.RWMutex
	data map[string]*inventory.Item
}

func (s *itemStore) Get(_ context.Context, id string) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("item %q not found", id)
	}
	return it, nil
}

func (s *itemStore) ListByRoom(_ context.Context, roomID string) ([]*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*inventory.Item
	for _, it := range s.data {
		if it.RoomID == roomID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *itemStore) ListByCharacter(_ context.Context, characterID string) ([]*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*inventory.Item
	for _, it := range s.data {
		if it.CharacterID == characterID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *itemStore) Save(_ context.Context, item *inventory.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[item.ID] = item
	return nil
}

func (s *itemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// --- AI agents ---

type agentStore struct {
	mu   sync.RWMutex
	data map[string]*worldstore.AIAgent
}

func (a *agentStore) Get(_ context.Context, id string) (*worldstore.AIAgent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	agent, ok := a.data[id]
	if !ok {
		return nil, fmt.Errorf("ai agent %q not found", id)
	}
	return agent, nil
}

func (a *agentStore) GetByCharacterID(_ context.Context, characterID string) (*worldstore.AIAgent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, agent := range a.data {
		if agent.CharacterID == characterID {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("ai agent for character %q not found", characterID)
}

func (a *agentStore) List(_ context.Context) ([]*worldstore.AIAgent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*worldstore.AIAgent, 0, len(a.data))
	for _, agent := range a.data {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *agentStore) Save(_ context.Context, agent *worldstore.AIAgent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[agent.ID] = agent
	return nil
}

// --- events ---

type eventStore struct {
	mu   sync.Mutex
	data []*worldstore.GameEvent
}

func (e *eventStore) Append(_ context.Context, event *worldstore.GameEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = append(e.data, event)
	return nil
}

func (e *eventStore) ListSince(_ context.Context, since int64, limit int) ([]*worldstore.GameEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*worldstore.GameEvent
	for _, ev := range e.data {
		if ev.Timestamp.Unix() >= since {
			out = append(out, ev)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// --- player logs ---

type playerLogStore struct {
	mu          sync.Mutex
	byCharacter map[string][]*worldstore.PlayerLog
}

func (p *playerLogStore) Append(_ context.Context, log *worldstore.PlayerLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byCharacter[log.CharacterID] = append(p.byCharacter[log.CharacterID], log)
	return nil
}

func (p *playerLogStore) ListByCharacter(_ context.Context, characterID string, limit int) ([]*worldstore.PlayerLog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	logs := p.byCharacter[characterID]
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	out := make([]*worldstore.PlayerLog, len(logs))
	copy(out, logs)
	return out, nil
}

// --- token usage ---

type tokenUsageStore struct {
	mu      sync.Mutex
	byAgent map[string][]*worldstore.TokenUsageLog
}

func (t *tokenUsageStore) Append(_ context.Context, log *worldstore.TokenUsageLog) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byAgent[log.AgentID] = append(t.byAgent[log.AgentID], log)
	return nil
}

func (t *tokenUsageStore) ListByAgent(_ context.Context, agentID string, limit int) ([]*worldstore.TokenUsageLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	logs := t.byAgent[agentID]
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	out := make([]*worldstore.TokenUsageLog, len(logs))
	copy(out, logs)
	return out, nil
}

// --- preferences ---

type preferenceStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func (p *preferenceStore) Get(_ context.Context, accountID string) (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prefs, ok := p.data[accountID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(prefs))
	for k, v := range prefs {
		out[k] = v
	}
	return out, nil
}

func (p *preferenceStore) Set(_ context.Context, accountID string, prefs map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[accountID] = prefs
	return nil
}

// --- game state ---

type gameStateStore struct {
	mu    sync.Mutex
	state worldstore.GameState
}

func (g *gameStateStore) Load(_ context.Context) (worldstore.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, nil
}

func (g *gameStateStore) Save(_ context.Context, state worldstore.GameState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
	return nil
}

// --- accounts ---

type accountStore struct {
	mu         sync.RWMutex
	byUsername map[string]*worldstore.Account
}

func (a *accountStore) GetByUsername(_ context.Context, username string) (*worldstore.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acct, ok := a.byUsername[username]
	if !ok {
		return nil, fmt.Errorf("account %q not found", username)
	}
	return acct, nil
}

func (a *accountStore) Save(_ context.Context, account *worldstore.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byUsername[account.Username] = account
	return nil
}

var _ worldstore.Store = (*Store)(nil)
