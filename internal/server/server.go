package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/combat"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/session"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// commandResultTimeout bounds how long a session waits for the Game Loop to
// drain its queued command, comfortably past CommandDrainCap backlog at the
// configured tick rate; past this the session assumes the command was
// dropped rather than hang a goroutine forever.
const commandResultTimeout = 5 * time.Second

// Starting stats for a freshly created Character. spec.md leaves initial
// stat values as an Open Question; these are a deliberately unremarkable
// baseline, documented in DESIGN.md.
const (
	startingHP      = 20
	startingAttack  = 5
	startingDefense = 3
	startingSpeed   = 10
)

// Server is the websocket duplex transport of spec.md §6: it upgrades HTTP
// connections, runs the account/character onboarding handshake, and bridges
// queued player commands and propagated Game Events between the simulation
// core and each client socket.
type Server struct {
	cfg      config.TransportConfig
	upgrader websocket.Upgrader

	accounts   worldstore.AccountStore
	charStore  worldstore.CharacterStore
	charReg    *state.CharacterRegistry
	rooms      *world.Manager
	queue      *command.Queue
	combat     *combat.Engine
	propagator *event.Propagator
	sessionMgr *session.Manager

	metrics *observability.Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	byChar   map[string]*Session // characterID -> live session
	admins   map[string]*Session // session id -> admin session
}

// New builds a Server.
//
// Precondition: every dependency must be non-nil except combatEngine and
// propagator, which may be nil at construction and wired in afterward via
// SetCombatEngine/SetPropagator to resolve their circular dependency on
// Server.
func New(
	cfg config.TransportConfig,
	accounts worldstore.AccountStore,
	charStore worldstore.CharacterStore,
	charReg *state.CharacterRegistry,
	rooms *world.Manager,
	queue *command.Queue,
	combatEngine *combat.Engine,
	propagator *event.Propagator,
	sessionMgr *session.Manager,
	logger *zap.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		accounts:  accounts,
		charStore: charStore,
		charReg:   charReg,
		rooms:     rooms,
		queue:     queue,
		combat:    combatEngine,
		propagator: propagator,
		sessionMgr: sessionMgr,
		logger:    logger,
		byChar:    make(map[string]*Session),
		admins:    make(map[string]*Session),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.ClientURL == "" || cfg.ClientURL == "*" || r.Header.Get("Origin") == cfg.ClientURL
			},
		},
	}
}

// WithMetrics attaches the Prometheus instrument set.
func (s *Server) WithMetrics(m *observability.Metrics) *Server {
	s.metrics = m
	return s
}

// SetCombatEngine wires the Combat Engine after construction, resolving the
// circular dependency between Server (a combat.DeathNotifier) and the
// Engine it notifies: the caller builds Server with a nil engine, builds
// the Engine with Server as its DeathNotifier, then calls this.
func (s *Server) SetCombatEngine(e *combat.Engine) { s.combat = e }

// SetPropagator wires the Event Propagator after construction, the same
// circular-dependency resolution as SetCombatEngine: Server is the
// Propagator's PlayerSink/AdminSink, so the Propagator can only be built
// once Server already exists.
func (s *Server) SetPropagator(p *event.Propagator) { s.propagator = p }

// ServeHTTP upgrades the request to a websocket connection and runs the
// session's read/write pump pair for the life of the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	sess := newSession(s, conn)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	sess.run()
}

func (s *Server) sessionForChar(characterID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byChar[characterID]
	return sess, ok
}

func (s *Server) onDisconnect(sess *Session) {
	s.mu.Lock()
	if sess.characterID != "" && s.byChar[sess.characterID] == sess {
		delete(s.byChar, sess.characterID)
	}
	if sess.isAdmin {
		delete(s.admins, sess.id)
	}
	s.mu.Unlock()

	if sess.characterID != "" {
		s.combat.RemoveActor(sess.characterID)
		s.sessionMgr.Unregister(sess.characterID)
		if actor, ok := s.charReg.Get(sess.characterID); ok {
			s.propagator.Broadcast(&event.Event{
				Type:         event.KindPlayerLeft,
				OriginRoomID: actor.CurrentRoomID,
				Visibility:   worldstore.VisibilityRoom,
				ActorID:      actor.ID,
				Payload:      event.PresencePayload{ActorID: actor.ID, ActorName: actor.Name},
				RelatedEntities: []string{actor.ID},
			})
		}
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
}

// handleMessage dispatches one decoded inbound frame by type.
func (s *Session) handleMessage(msg WSMessage) {
	switch msg.Type {
	case msgPlayerJoin:
		s.handlePlayerJoin(msg.Payload)
	case msgCharacterList:
		s.handleCharacterList(msg.Payload)
	case msgCharacterCreate:
		s.handleCharacterCreate(msg.Payload)
	case msgCharacterSelect:
		s.handleCharacterSelect(msg.Payload)
	case msgGameCommand:
		s.handleGameCommand(msg.Payload)
	case msgAdminJoin:
		s.handleAdminJoin()
	case msgAdminLeave:
		s.handleAdminLeave()
	default:
		s.sendError("unrecognized message type: " + msg.Type)
	}
}

func (s *Session) handlePlayerJoin(raw json.RawMessage) {
	var payload playerJoinPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Name == "" {
		s.sendError("player:join requires a non-empty name")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	acct, err := s.srv.accounts.GetByUsername(ctx, payload.Name)
	if err != nil {
		acct = &worldstore.Account{ID: uuid.NewString(), Username: payload.Name, CreatedAt: time.Now()}
		if err := s.srv.accounts.Save(ctx, acct); err != nil {
			s.logger.Error("save new account", zap.Error(err))
			s.sendError("could not create account")
			return
		}
	}

	s.username = acct.Username
	s.accountID = acct.ID
	s.sendRaw(msgPlayerJoin, playerJoinAck{AccountID: acct.ID, Username: acct.Username})
}

func (s *Session) handleCharacterList(raw json.RawMessage) {
	var payload characterListPayload
	_ = json.Unmarshal(raw, &payload)
	username := payload.Username
	if username == "" {
		username = s.username
	}
	if username == "" {
		s.sendError("character:list requires a username or a prior player:join")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	acct, err := s.srv.accounts.GetByUsername(ctx, username)
	if err != nil {
		s.sendRaw(msgCharacterList, characterListAck{Characters: []characterSummary{}})
		return
	}

	all, err := s.srv.charStore.List(ctx)
	if err != nil {
		s.logger.Error("list characters", zap.Error(err))
		s.sendError("could not list characters")
		return
	}
	var out []characterSummary
	for _, c := range all {
		if c.AccountID == acct.ID {
			out = append(out, characterSummary{ID: c.ID, Name: c.Name, HP: c.HP, MaxHP: c.MaxHP, RoomID: c.CurrentRoomID})
		}
	}
	s.sendRaw(msgCharacterList, characterListAck{Characters: out})
}

func (s *Session) handleCharacterCreate(raw json.RawMessage) {
	var payload characterCreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Username == "" || payload.Name == "" {
		s.sendError("character:create requires username and name")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	acct, err := s.srv.accounts.GetByUsername(ctx, payload.Username)
	if err != nil {
		s.sendError("unknown account, player:join first")
		return
	}

	start := s.srv.rooms.StartRoom()
	if start == nil {
		s.sendError("no starting room configured")
		return
	}

	c := &character.Character{
		ID:            uuid.NewString(),
		Name:          payload.Name,
		AccountID:     acct.ID,
		CurrentRoomID: start.ID,
		SpawnPointID:  start.ID,
		HP:            startingHP,
		MaxHP:         startingHP,
		Attack:        startingAttack,
		Defense:       startingDefense,
		Speed:         startingSpeed,
		IsAlive:       true,
		CreatedAt:     time.Now(),
		LastActionAt:  time.Now(),
	}
	if err := c.Validate(); err != nil {
		s.sendError(err.Error())
		return
	}
	if err := s.srv.charStore.Save(ctx, c); err != nil {
		s.logger.Error("save new character", zap.Error(err))
		s.sendError("could not create character")
		return
	}
	if err := s.srv.charReg.Add(c); err != nil {
		s.logger.Error("register new character", zap.Error(err))
	}
	s.sendRaw(msgCharacterCreate, characterCreateAck{CharacterID: c.ID})
}

func (s *Session) handleCharacterSelect(raw json.RawMessage) {
	var payload characterSelectPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.CharacterID == "" {
		s.sendError("character:select requires characterId")
		return
	}

	actor, ok := s.srv.charReg.Get(payload.CharacterID)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		loaded, err := s.srv.charStore.Get(ctx, payload.CharacterID)
		cancel()
		if err != nil {
			s.sendError("unknown character")
			return
		}
		actor = loaded
		if err := s.srv.charReg.Add(actor); err != nil {
			s.logger.Error("register reconnecting character", zap.Error(err))
		}
	}
	if !actor.IsAlive {
		s.sendError("character is not alive")
		return
	}

	if existing, ok := s.srv.sessionForChar(actor.ID); ok && existing != s {
		existing.sendRaw(msgGameDisconnect, gameDisconnectPayload{Reason: "replaced by a new connection"})
		s.srv.onDisconnect(existing)
		s.srv.sessionMgr.Unregister(actor.ID)
	}

	entity, err := s.srv.sessionMgr.Register(actor.ID, 64)
	if err != nil {
		s.srv.sessionMgr.Unregister(actor.ID)
		entity, err = s.srv.sessionMgr.Register(actor.ID, 64)
		if err != nil {
			s.sendError("could not bind character to this connection")
			return
		}
	}
	s.characterID = actor.ID
	s.srv.mu.Lock()
	s.srv.byChar[actor.ID] = s
	s.srv.mu.Unlock()
	go s.forwardEntity(entity)

	s.srv.propagator.Broadcast(&event.Event{
		Type:         event.KindPlayerEntered,
		OriginRoomID: actor.CurrentRoomID,
		Visibility:   worldstore.VisibilityRoom,
		ActorID:      actor.ID,
		Payload:      event.PresencePayload{ActorID: actor.ID, ActorName: actor.Name},
		RelatedEntities: []string{actor.ID},
	})

	result := make(chan command.CommandResult, 1)
	s.srv.queue.EnqueueWithResult(command.ActorPlayer, actor.ID, "look", result)
	go s.awaitCharacterSelectAck(result)
}

// forwardEntity relays entity's queued bytes (pushed by the Event
// Propagator's PlayerSink delivery) onto this session's own send channel,
// until the entity is closed (Unregister on disconnect/replacement).
func (s *Session) forwardEntity(entity *session.BridgeEntity) {
	for b := range entity.Events() {
		select {
		case s.send <- b:
		default:
			s.logger.Warn("session send buffer full, dropping event", zap.String("session", s.id))
		}
	}
}

func (s *Session) awaitCharacterSelectAck(result chan command.CommandResult) {
	select {
	case res := <-result:
		if res.Success && res.Output != nil {
			s.sendRaw(msgCharacterSelect, characterSelectAck{Output: *res.Output})
		} else {
			s.sendError(res.Error)
		}
	case <-time.After(commandResultTimeout):
		s.logger.Warn("character:select room lookup timed out", zap.String("session", s.id))
	}
}

func (s *Session) handleGameCommand(raw json.RawMessage) {
	var payload gameCommandPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Command == "" {
		s.sendError("game:command requires a non-empty command")
		return
	}
	if s.characterID == "" {
		s.sendError("select a character first")
		return
	}
	result := make(chan command.CommandResult, 1)
	s.srv.queue.EnqueueWithResult(command.ActorPlayer, s.characterID, payload.Command, result)
	go s.awaitCommandResult(result)
}

func (s *Session) awaitCommandResult(result chan command.CommandResult) {
	select {
	case res := <-result:
		s.deliverCommandResult(res)
	case <-time.After(commandResultTimeout):
		s.logger.Warn("game:command result timed out", zap.String("session", s.id), zap.String("character", s.characterID))
	}
}

func (s *Session) deliverCommandResult(res command.CommandResult) {
	if !res.Success {
		s.sendError(res.Error)
		return
	}
	if res.Output != nil {
		s.sendRaw(msgGameOutput, *res.Output)
	}
}

func (s *Session) handleAdminJoin() {
	s.isAdmin = true
	s.srv.mu.Lock()
	s.srv.admins[s.id] = s
	s.srv.mu.Unlock()
}

func (s *Session) handleAdminLeave() {
	s.isAdmin = false
	s.srv.mu.Lock()
	delete(s.srv.admins, s.id)
	s.srv.mu.Unlock()
}

// DeliverEvent implements event.PlayerSink: it pushes the rendered event
// onto characterID's BridgeEntity, if a connection is currently bound to it.
func (s *Server) DeliverEvent(characterID string, evt *worldstore.GameEvent, rendered string) bool {
	entity, ok := s.sessionMgr.Get(characterID)
	if !ok {
		return false
	}
	b, err := encode(msgGameEvent, gameEventEnvelope{Event: evt, Rendered: rendered})
	if err != nil {
		s.logger.Error("encode game:event", zap.Error(err))
		return true
	}
	if err := entity.Push(b); err != nil {
		s.logger.Warn("player event buffer full", zap.String("character", characterID), zap.Error(err))
	}
	s.maybeDeliverStatUpdate(characterID, evt)
	return true
}

// maybeDeliverStatUpdate sends a character:update frame with the character's
// current stats whenever a combat_hit, item_equip (also used for unequip) or
// death event is delivered to it, whether or not that event is about the
// character itself.
func (s *Server) maybeDeliverStatUpdate(characterID string, evt *worldstore.GameEvent) {
	switch evt.Type {
	case string(event.KindCombatHit), string(event.KindItemEquip), string(event.KindDeath):
	default:
		return
	}
	actor, ok := s.charReg.Get(characterID)
	if !ok {
		return
	}
	sess, ok := s.sessionForChar(characterID)
	if !ok {
		return
	}
	sess.sendRaw(msgCharacterUpdate, characterUpdatePayload{HP: actor.HP, MaxHP: actor.MaxHP, Attack: actor.Attack, Defense: actor.Defense})
}

// Mirror implements event.AdminSink: every admin-joined session receives an
// omniscient, unattenuated copy of every event, regardless of visibility.
func (s *Server) Mirror(evt *worldstore.GameEvent, rendered string, recipientIDs []string) {
	s.mu.RLock()
	admins := make([]*Session, 0, len(s.admins))
	for _, a := range s.admins {
		admins = append(admins, a)
	}
	s.mu.RUnlock()
	if len(admins) == 0 {
		return
	}
	b, err := encode(msgAdminGameEvent, adminGameEventEnvelope{Event: evt, Rendered: rendered, RecipientIDs: recipientIDs})
	if err != nil {
		s.logger.Error("encode admin:game-event", zap.Error(err))
		return
	}
	for _, a := range admins {
		select {
		case a.send <- b:
		default:
			s.logger.Warn("admin session send buffer full, dropping mirror", zap.String("session", a.id))
		}
	}
}

// NotifyDeath implements combat.DeathNotifier: it sends game:death to the
// victim's connection, if any, and schedules the connection's close ~3s
// later, per spec.md §4.4.
func (s *Server) NotifyDeath(characterID string) {
	sess, ok := s.sessionForChar(characterID)
	if !ok {
		return
	}
	sess.sendRaw(msgGameDeath, gameDeathPayload{Message: "you have died"})
	time.AfterFunc(3*time.Second, func() {
		sess.sendRaw(msgGameDisconnect, gameDisconnectPayload{Reason: "you have died"})
		sess.conn.Close()
	})
}
