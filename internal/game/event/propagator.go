package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// PlayerSink delivers a formatted event to a connected player's socket and
// reports whether the character currently has a live connection.
type PlayerSink interface {
	DeliverEvent(characterID string, evt *worldstore.GameEvent, rendered string) bool
}

// AgentSink enqueues an event into an AI agent's perception queue and
// reports whether characterID names a live agent.
type AgentSink interface {
	DeliverEvent(characterID string, evt *Event) bool
}

// AdminSink receives an omniscient-formatted clone of every event
// regardless of visibility or attenuation, per spec.md §4.5 step 4.
type AdminSink interface {
	Mirror(evt *worldstore.GameEvent, rendered string, recipientIDs []string)
}

// Propagator implements the Event Propagator of spec.md §4.5: a tick-local
// FIFO that persists, computes recipients, attenuates, mirrors to admin,
// formats per recipient, and delivers.
type Propagator struct {
	mu    sync.Mutex
	queue []*Event

	rooms      *world.Manager
	characters *state.CharacterRegistry
	listening  *listening.Registry

	events     worldstore.EventStore
	playerLogs worldstore.PlayerLogStore

	players PlayerSink
	agents  AgentSink
	admin   AdminSink

	metrics *observability.Metrics
	logger  *zap.Logger

	idGen func() string
	now   func() time.Time
}

// Option configures an optional Propagator dependency.
type Option func(*Propagator)

// WithAdminSink attaches the admin event mirror channel.
func WithAdminSink(sink AdminSink) Option {
	return func(p *Propagator) { p.admin = sink }
}

// WithMetrics attaches the Prometheus instrument set.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Propagator) { p.metrics = m }
}

// WithClock overrides the propagator's time source (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Propagator) { p.now = now }
}

// WithIDGenerator overrides the propagator's event ID source (tests).
func WithIDGenerator(gen func() string) Option {
	return func(p *Propagator) { p.idGen = gen }
}

// New builds a Propagator.
//
// Precondition: rooms, characters, listeningReg, events, playerLogs,
// players, and agents must be non-nil.
func New(
	rooms *world.Manager,
	characters *state.CharacterRegistry,
	listeningReg *listening.Registry,
	events worldstore.EventStore,
	playerLogs worldstore.PlayerLogStore,
	players PlayerSink,
	agents AgentSink,
	logger *zap.Logger,
	opts ...Option,
) *Propagator {
	p := &Propagator{
		rooms:      rooms,
		characters: characters,
		listening:  listeningReg,
		events:     events,
		playerLogs: playerLogs,
		players:    players,
		agents:     agents,
		logger:     logger,
		idGen:      func() string { return uuidString() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Broadcast enqueues an event for delivery at the propagator's next
// FlushQueue. Non-blocking, matching the Command Queue's Enqueue contract.
func (p *Propagator) Broadcast(e *Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, e)
}

// QueueDepth reports the number of events awaiting the next flush.
func (p *Propagator) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// FlushQueue drains every currently queued event in FIFO order, processing
// each fully (persist → recipients → attenuate → mirror → format →
// deliver) before moving to the next, preserving the per-recipient
// delivery-order invariant of spec.md §4.5.
func (p *Propagator) FlushQueue(ctx context.Context) {
	p.mu.Lock()
	batch := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, e := range batch {
		p.process(ctx, e)
	}
}

func (p *Propagator) process(ctx context.Context, e *Event) {
	if e.ID == "" {
		e.ID = p.idGen()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now()
	}

	persisted := e.ToGameEvent()
	if err := p.events.Append(ctx, persisted); err != nil {
		if err2 := p.events.Append(ctx, persisted); err2 != nil {
			p.logger.Error("event persistence failed after retry",
				zap.String("event_id", e.ID), zap.String("type", string(e.Type)), zap.Error(err2))
		}
	}

	recipients := computeRecipients(e, p.rooms, p.characters)
	seen := make(map[string]bool, len(recipients))
	unique := make([]recipient, 0, len(recipients))
	recipientIDs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if seen[r.characterID] {
			continue
		}
		seen[r.characterID] = true
		unique = append(unique, r)
		recipientIDs = append(recipientIDs, r.characterID)
	}

	if p.admin != nil {
		omniscient := Render(e, 0, "", "", false)
		p.admin.Mirror(persisted, omniscient, recipientIDs)
	}

	delivered := 0
	for _, r := range unique {
		rendered := Render(e, r.distance, r.characterID, r.viewerRoomID, p.isListeningToEither(r.characterID, e))
		if rendered == "" {
			continue
		}

		c, ok := p.characters.Get(r.characterID)
		if ok && c.IsNPC() {
			if p.agents.DeliverEvent(r.characterID, e) {
				delivered++
			}
			continue
		}
		if p.players.DeliverEvent(r.characterID, persisted, rendered) {
			delivered++
			if p.playerLogs != nil {
				_ = p.playerLogs.Append(ctx, &worldstore.PlayerLog{
					CharacterID: r.characterID,
					Kind:        worldstore.LogKindEvent,
					Payload:     rendered,
					Timestamp:   e.Timestamp,
				})
			}
		}
	}

	if p.metrics != nil {
		p.metrics.EventPropagationLen.Observe(float64(delivered))
	}
}

// isListeningToEither reports whether observerID is eavesdropping on either
// side of a directed (tell/whisper) event, per spec.md §4.6's tell
// obfuscation override.
func (p *Propagator) isListeningToEither(observerID string, e *Event) bool {
	if p.listening == nil {
		return false
	}
	dp, ok := e.Payload.(DirectedPayload)
	if !ok {
		return false
	}
	return p.listening.IsListeningTo(observerID, dp.ActorID) || p.listening.IsListeningTo(observerID, dp.TargetID)
}
