package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/llm"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// EventSink is the subset of event.Propagator the AI Agent Manager depends
// on, the same narrow shape as command.EventSink and combat.EventSink.
type EventSink interface {
	Broadcast(e *event.Event)
}

// agentState bundles one AI Agent's persisted record with its live
// in-memory perception queue.
type agentState struct {
	agent       *worldstore.AIAgent
	perception  *PerceptionQueue
	lastActionAt time.Time
}

type conversationTrigger struct {
	characterID string
	peerID      string
	peerName    string
}

// Manager is the AI Agent Manager of spec.md §4.7: a perception-queue per
// agent plus an independent proactive decision loop, grounded on the
// teacher's deleted HTN manager's RWMutex-guarded-registry/ticker shape.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*agentState // keyed by characterID

	characters *state.CharacterRegistry
	rooms      *world.Manager
	items      worldstore.ItemStore
	agentStore worldstore.AIAgentStore
	tokenUsage worldstore.TokenUsageStore
	queue      *command.Queue
	sink       EventSink
	oracle     llm.Oracle
	cfg        config.AIConfig
	metrics    *observability.Metrics
	logger     *zap.Logger

	conversationTriggers chan conversationTrigger
	stop                 chan struct{}
	done                 chan struct{}

	now func() time.Time
}

// New builds an AI Agent Manager.
//
// Precondition: characters, rooms, items, agentStore, tokenUsage, queue,
// and oracle must be non-nil. sink may be nil at construction and wired in
// afterward via SetSink to resolve its circular dependency on the Event
// Propagator.
func New(
	characters *state.CharacterRegistry,
	rooms *world.Manager,
	items worldstore.ItemStore,
	agentStore worldstore.AIAgentStore,
	tokenUsage worldstore.TokenUsageStore,
	queue *command.Queue,
	sink EventSink,
	oracle llm.Oracle,
	cfg config.AIConfig,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		agents:               make(map[string]*agentState),
		characters:           characters,
		rooms:                rooms,
		items:                items,
		agentStore:           agentStore,
		tokenUsage:           tokenUsage,
		queue:                queue,
		sink:                 sink,
		oracle:               oracle,
		cfg:                  cfg,
		logger:               logger,
		conversationTriggers: make(chan conversationTrigger, 64),
		stop:                 make(chan struct{}),
		done:                 make(chan struct{}),
		now:                  time.Now,
	}
}

// WithMetrics attaches the Prometheus instrument set.
func (m *Manager) WithMetrics(metrics *observability.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// SetSink wires the Event Propagator after construction. Manager depends on
// event.Propagator as its EventSink, but Propagator depends on Manager as
// its AgentSink — the same circular-dependency pattern server.Server
// resolves via SetCombatEngine/SetPropagator: build Manager with a nil
// sink, build the Propagator with Manager as its AgentSink, then call this.
func (m *Manager) SetSink(sink EventSink) { m.sink = sink }

// LoadAgents registers every persisted AIAgent from the store, used at
// startup to resume simulation of existing NPCs.
func (m *Manager) LoadAgents(ctx context.Context) error {
	agents, err := m.agentStore.List(ctx)
	if err != nil {
		return fmt.Errorf("listing ai agents: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range agents {
		m.agents[a.CharacterID] = &agentState{
			agent:        a,
			perception:   NewPerceptionQueue(m.cfg.PerceptionWindow()),
			lastActionAt: a.LastActionAt,
		}
	}
	return nil
}

// RegisterAgent adds a freshly-spawned AIAgent to the manager, used when an
// agent is instantiated from a Template at world setup.
func (m *Manager) RegisterAgent(a *worldstore.AIAgent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[a.CharacterID] = &agentState{
		agent:        a,
		perception:   NewPerceptionQueue(m.cfg.PerceptionWindow()),
		lastActionAt: a.LastActionAt,
	}
}

// DeliverEvent implements event.AgentSink: a non-blocking push into the
// addressed agent's perception queue. Additionally, a directed event
// (tell/whisper) from a human player wakes the conversation path early
// instead of waiting for the next proactive round.
func (m *Manager) DeliverEvent(characterID string, evt *event.Event) bool {
	m.mu.RLock()
	st, ok := m.agents[characterID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	st.perception.Push(evt)

	if dp, isDirected := evt.Payload.(event.DirectedPayload); isDirected && dp.TargetID == characterID {
		if sender, ok := m.characters.Get(dp.ActorID); ok && !sender.IsNPC() {
			select {
			case m.conversationTriggers <- conversationTrigger{characterID: characterID, peerID: dp.ActorID, peerName: dp.ActorName}:
			default:
				// Trigger channel full; the proactive loop will still pick this
				// up from the perception queue on its next 10s round.
			}
		}
	}
	return true
}

// Start launches the Manager's single background goroutine, which serialises
// every oracle call behind one select loop so oracle I/O never competes
// with or blocks the Game Loop's own tick goroutine, per the suspension-
// point contract in spec.md §5.
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop halts the background loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	interval := m.cfg.ProactiveInterval()
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.proactiveRound(ctx)
		case trigger := <-m.conversationTriggers:
			m.conversationRound(ctx, trigger)
		}
	}
}

// AgentCount reports the number of currently registered AI agents, for the
// read-only admin status surface.
func (m *Manager) AgentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.agents)
}

// snapshot copies the current character IDs under the manager's agents so
// the proactive round can run without holding the lock across oracle calls.
func (m *Manager) snapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) stateFor(characterID string) (*agentState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.agents[characterID]
	return st, ok
}

func (m *Manager) proactiveRound(ctx context.Context) {
	for _, characterID := range m.snapshot() {
		m.processAgentProactive(ctx, characterID)
	}
}

func (m *Manager) processAgentProactive(ctx context.Context, characterID string) {
	st, ok := m.stateFor(characterID)
	if !ok {
		return
	}

	actor, ok := m.characters.Get(characterID)
	if !ok || !actor.IsAlive {
		return
	}

	m.maybeRefreshSpatialMemory(ctx, st)

	cooldown := st.agent.Cooldown
	if cooldown <= 0 {
		cooldown = m.cfg.Cooldown()
	}
	if m.now().Sub(st.lastActionAt) < cooldown {
		return
	}

	if !m.hasHumanObserver(actor.CurrentRoomID) {
		return
	}

	perceived := st.perception.Drain()
	if len(perceived) == 0 {
		return
	}

	req := m.buildDecisionRequest(ctx, actor, st, perceived)

	start := time.Now()
	decision, usage, err := m.oracle.DecideAction(ctx, req)
	m.observeOracleLatency("decide_action", time.Since(start))

	if err != nil {
		m.emitAIError(actor, "oracle decide_action failed: "+err.Error())
		m.recordOracleError("decide_action", "oracle_error")
		return
	}
	m.recordUsage(ctx, usage, worldstore.SourceDecision, st.agent.ID)

	m.emitAIDecision(actor, decision)
	if decision == nil {
		return
	}

	line, ok := m.commandLineFor(decision)
	if !ok {
		m.emitAIError(actor, "decision carried no usable action text")
		return
	}

	if dir, isMovement := movementDirection(decision.Action, decision.Arguments); isMovement {
		if !m.movementWithinHomeBounds(actor, st.agent, dir) {
			m.emitAIError(actor, fmt.Sprintf("movement %s would exceed max-rooms-from-home", dir))
			return
		}
	}

	m.queue.Enqueue(command.ActorAI, characterID, line)
	m.emitAIAction(actor, decision)

	st.lastActionAt = m.now()
	st.agent.LastActionAt = st.lastActionAt
	if err := m.agentStore.Save(ctx, st.agent); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist ai agent after action", zap.String("agent_id", st.agent.ID), zap.Error(err))
	}
}

func (m *Manager) conversationRound(ctx context.Context, trigger conversationTrigger) {
	st, ok := m.stateFor(trigger.characterID)
	if !ok {
		return
	}
	actor, ok := m.characters.Get(trigger.characterID)
	if !ok || !actor.IsAlive {
		return
	}

	perceived := st.perception.Drain()
	req := m.buildDecisionRequest(ctx, actor, st, perceived)

	start := time.Now()
	resp, usage, err := m.oracle.DecideResponse(ctx, req)
	m.observeOracleLatency("decide_response", time.Since(start))

	if err != nil {
		m.emitAIError(actor, "oracle decide_response failed: "+err.Error())
		m.recordOracleError("decide_response", "oracle_error")
		return
	}
	m.recordUsage(ctx, usage, worldstore.SourceDecisionResponse, st.agent.ID)

	if resp == nil || !resp.ShouldRespond {
		return
	}

	m.queue.Enqueue(command.ActorAI, trigger.characterID, "say "+resp.Response)

	now := m.now()
	m.updateRelationship(st.agent, trigger.peerName, now)
	m.appendConversation(st.agent, trigger.peerName, resp.Response, now)

	if err := m.agentStore.Save(ctx, st.agent); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist ai agent after conversation", zap.String("agent_id", st.agent.ID), zap.Error(err))
	}
}

// updateRelationship applies the conversation-path relationship update of
// spec.md §4.7: familiarity += 1, last-seen = now. spec.md's decideResponse
// contract returns only {shouldRespond, response, reasoning} — it never
// carries a sentiment/trust delta to merge — so that half of the spec's
// "merges any oracle-suggested sentiment/trust deltas" clause has nothing to
// apply against this Oracle binding and is a documented no-op; see
// DESIGN.md.
func (m *Manager) updateRelationship(agent *worldstore.AIAgent, peerName string, now time.Time) {
	if agent.Relationships == nil {
		agent.Relationships = make(map[string]worldstore.Relationship)
	}
	rel := agent.Relationships[peerName]
	rel.Familiarity++
	rel.LastSeen = now
	agent.Relationships[peerName] = rel
}

// appendConversation records the exchange and trims to the last 20 entries
// per spec.md §4.7.
func (m *Manager) appendConversation(agent *worldstore.AIAgent, peerName, response string, now time.Time) {
	agent.ConversationHistory = append(agent.ConversationHistory,
		worldstore.ConversationEntry{Speaker: peerName, Message: "(addressed " + agent.CharacterID + ")", Timestamp: now},
		worldstore.ConversationEntry{Speaker: agent.CharacterID, Message: response, Timestamp: now},
	)
	const maxHistory = 20
	if len(agent.ConversationHistory) > maxHistory {
		agent.ConversationHistory = agent.ConversationHistory[len(agent.ConversationHistory)-maxHistory:]
	}
}

// maybeRefreshSpatialMemory regenerates an agent's spatial-memory summary
// when it is missing or older than the configured TTL, per spec.md §4.7:
// BFS out to max-rooms-from-home+2 hops, then compress via the Oracle.
func (m *Manager) maybeRefreshSpatialMemory(ctx context.Context, st *agentState) {
	ttl := m.cfg.SpatialMemoryTTL()
	if !st.agent.SpatialMemoryUpdatedAt.IsZero() && m.now().Sub(st.agent.SpatialMemoryUpdatedAt) < ttl {
		return
	}
	m.refreshSpatialMemory(ctx, st)
}

// RegenerateSpatialMemory forces an immediate refresh on the next proactive
// round, the admin-triggered override of spec.md §4.7's 24h TTL.
func (m *Manager) RegenerateSpatialMemory(characterID string) bool {
	st, ok := m.stateFor(characterID)
	if !ok {
		return false
	}
	st.agent.SpatialMemoryUpdatedAt = time.Time{}
	return true
}

func (m *Manager) refreshSpatialMemory(ctx context.Context, st *agentState) {
	hops := st.agent.MaxRoomsFromHome + 2
	within := m.rooms.RoomsWithinHops(st.agent.HomeRoomID, hops)

	var b strings.Builder
	for roomID := range within {
		room, ok := m.rooms.GetRoom(roomID)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", room.Name, room.Description)
	}

	start := time.Now()
	summary, usage, err := m.oracle.SummariseSpatialMap(ctx, b.String())
	m.observeOracleLatency("summarise_spatial_map", time.Since(start))
	if err != nil {
		if actor, ok := m.characters.Get(st.agent.CharacterID); ok {
			m.emitAIError(actor, "spatial memory refresh failed: "+err.Error())
		}
		m.recordOracleError("summarise_spatial_map", "oracle_error")
		return
	}
	m.recordUsage(ctx, usage, worldstore.SourceSpatialMemory, st.agent.ID)

	st.agent.SpatialMemory = summary
	st.agent.SpatialMemoryUpdatedAt = m.now()
	if err := m.agentStore.Save(ctx, st.agent); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist refreshed spatial memory", zap.String("agent_id", st.agent.ID), zap.Error(err))
	}
}

func (m *Manager) hasHumanObserver(roomID string) bool {
	for _, c := range m.characters.InRoom(roomID) {
		if !c.IsNPC() {
			return true
		}
	}
	return false
}

func (m *Manager) buildDecisionRequest(ctx context.Context, actor *character.Character, st *agentState, perceived []*event.Event) llm.DecisionRequest {
	formatted := make([]string, 0, len(perceived))
	for _, e := range perceived {
		rendered := event.Render(e, 0, actor.ID, actor.CurrentRoomID, false)
		if rendered != "" {
			formatted = append(formatted, rendered)
		}
	}

	var adjacencies []string
	if room, ok := m.rooms.GetRoom(actor.CurrentRoomID); ok {
		for dir, targetID := range room.Exits {
			if target, ok := m.rooms.GetRoom(targetID); ok {
				adjacencies = append(adjacencies, fmt.Sprintf("%s: %s", dir, target.Name))
			}
		}
	}

	var occupants []string
	for _, c := range m.characters.InRoom(actor.CurrentRoomID) {
		if c.ID != actor.ID {
			occupants = append(occupants, c.Name)
		}
	}

	var items []string
	if roomItems, err := m.items.ListByRoom(ctx, actor.CurrentRoomID); err == nil {
		for _, it := range roomItems {
			items = append(items, it.Name)
		}
	}

	relationships := make(map[string]llm.RelationshipView, len(st.agent.Relationships))
	for peer, rel := range st.agent.Relationships {
		relationships[peer] = llm.RelationshipView{
			Sentiment:   rel.Sentiment,
			Trust:       rel.Trust,
			Familiarity: rel.Familiarity,
			LastSeen:    rel.LastSeen,
			Role:        rel.Role,
		}
	}

	return llm.DecisionRequest{
		SystemPrompt:        st.agent.SystemPrompt,
		AgentName:           actor.Name,
		FormattedEvents:     formatted,
		Adjacencies:         adjacencies,
		Occupants:           occupants,
		Items:               items,
		Relationships:       relationships,
		TimeSinceLastAction: m.now().Sub(st.lastActionAt),
		RoomContext:         actor.Description,
		SpatialMemory:       st.agent.SpatialMemory,
		AgentID:             st.agent.ID,
	}
}

// commandLineFor reconstructs a dispatchable command line from a Decision.
// By convention the Oracle binding packs the verb's remaining argument text
// under the single "text" key of Arguments — map iteration order can't
// reliably reconstruct a multi-word command line, so a free-form single
// field sidesteps that rather than relying on ordering.
func (m *Manager) commandLineFor(d *llm.Decision) (string, bool) {
	action := strings.TrimSpace(d.Action)
	if action == "" {
		return "", false
	}
	text := strings.TrimSpace(d.Arguments["text"])
	if text == "" {
		return action, true
	}
	return action + " " + text, true
}

// movementDirection reports whether a Decision's verb is a movement command
// and, if so, the direction it targets, mirroring command.Dispatcher's own
// direction-shortcut/`go <direction>` resolution so the Manager can apply
// its home-room boundary check before ever enqueuing the move.
func movementDirection(action string, args map[string]string) (world.Direction, bool) {
	token := strings.ToLower(strings.TrimSpace(action))
	if token == "go" || token == "move" {
		token = strings.ToLower(strings.TrimSpace(args["text"]))
	}
	if dir, ok := world.DirectionAliases[token]; ok {
		return dir, true
	}
	dir := world.Direction(token)
	if dir.IsStandard() {
		return dir, true
	}
	return "", false
}

// movementWithinHomeBounds enforces spec.md §4.7's wandering-radius
// invariant. This check deliberately lives in ai.Manager rather than in the
// generic command.Dispatcher: the Dispatcher has no notion of "home room"
// or "max rooms from home" — that is AI-specific planning state living in
// worldstore.AIAgent, and a player's `go` command is never subject to it.
func (m *Manager) movementWithinHomeBounds(actor *character.Character, agent *worldstore.AIAgent, dir world.Direction) bool {
	dest, err := m.rooms.Navigate(actor.CurrentRoomID, dir)
	if err != nil {
		// Not a valid exit; let the Dispatcher's own handler reject it and
		// report the failure normally rather than pre-empting it here.
		return true
	}
	within := m.rooms.RoomsWithinHops(agent.HomeRoomID, agent.MaxRoomsFromHome)
	_, ok := within[dest.ID]
	return ok
}

func (m *Manager) emitAIDecision(actor *character.Character, decision *llm.Decision) {
	reasoning := ""
	if decision != nil {
		reasoning = decision.Reasoning
	}
	m.sink.Broadcast(&event.Event{
		Type:         event.KindAIDecision,
		OriginRoomID: actor.CurrentRoomID,
		Visibility:   worldstore.VisibilityGlobal,
		ActorID:      actor.ID,
		Payload:      event.AIDecisionPayload{AgentID: actor.ID, AgentName: actor.Name, Reasoning: reasoning},
		RelatedEntities: []string{actor.ID},
	})
}

func (m *Manager) emitAIAction(actor *character.Character, decision *llm.Decision) {
	m.sink.Broadcast(&event.Event{
		Type:         event.KindAIAction,
		OriginRoomID: actor.CurrentRoomID,
		Visibility:   worldstore.VisibilityGlobal,
		ActorID:      actor.ID,
		Payload:      event.AIActionPayload{AgentID: actor.ID, AgentName: actor.Name, Action: decision.Action, Arguments: decision.Arguments},
		RelatedEntities: []string{actor.ID},
	})
}

func (m *Manager) emitAIError(actor *character.Character, reason string) {
	m.sink.Broadcast(&event.Event{
		Type:         event.KindAIError,
		OriginRoomID: actor.CurrentRoomID,
		Visibility:   worldstore.VisibilityGlobal,
		ActorID:      actor.ID,
		Payload:      event.AIErrorPayload{AgentID: actor.ID, Reason: reason},
		RelatedEntities: []string{actor.ID},
	})
	if m.logger != nil {
		m.logger.Warn("ai agent error", zap.String("agent_id", actor.ID), zap.String("reason", reason))
	}
}

func (m *Manager) recordUsage(ctx context.Context, usage *llm.Usage, source worldstore.TokenUsageSource, agentID string) {
	if usage == nil || m.tokenUsage == nil {
		return
	}
	log := &worldstore.TokenUsageLog{
		Model:            usage.Model,
		Provider:         usage.Provider,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Cost:             usage.Cost,
		Source:           source,
		AgentID:          agentID,
		CreatedAt:        m.now(),
	}
	if err := m.tokenUsage.Append(ctx, log); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist token usage", zap.Error(err))
	}
	if m.metrics != nil {
		m.metrics.OracleTokensTotal.WithLabelValues(string(source), "prompt").Add(float64(usage.PromptTokens))
		m.metrics.OracleTokensTotal.WithLabelValues(string(source), "completion").Add(float64(usage.CompletionTokens))
	}
}

func (m *Manager) observeOracleLatency(operation string, d time.Duration) {
	if m.metrics == nil {
		return
	}
	m.metrics.OracleLatency.WithLabelValues(operation).Observe(float64(d.Milliseconds()))
}

func (m *Manager) recordOracleError(operation, reason string) {
	if m.metrics == nil {
		return
	}
	m.metrics.OracleErrorTotal.WithLabelValues(operation, reason).Inc()
}
