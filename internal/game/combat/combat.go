// Package combat implements the gauge-accumulator Combat System of
// spec.md §4.4: a map keyed by attacker id, ticked once per Game Loop tick,
// resolving exactly one swing whenever an attacker's gauge crosses 100.
package combat

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// combatant is one attacker's entry in the combat table.
type combatant struct {
	targetID string
	gauge    float64
	speed    int
}

// EventSink is the subset of event.Propagator the Combat System depends on.
type EventSink interface {
	Broadcast(e *event.Event)
}

// DeathNotifier is called when a player-controlled character dies, letting
// the transport layer send `game:death` and schedule the ~3s disconnect
// per spec.md §4.4; a nil DeathNotifier silently skips this step (used by
// tests where no live socket exists).
type DeathNotifier interface {
	NotifyDeath(characterID string)
}

// Engine is the Combat System, guarded by an RWMutex matching the teacher's
// map[string]*Combat-behind-an-RWMutex concurrency shape, even though in
// practice only the single Game Loop goroutine ever mutates it per
// spec.md §5 — the lock exists so admin/debug read paths can inspect combat
// state without racing the tick.
type Engine struct {
	mu    sync.RWMutex
	table map[string]*combatant

	characters *state.CharacterRegistry
	items      worldstore.ItemStore
	sink       EventSink
	notifier   DeathNotifier
	metrics    *observability.Metrics
	logger     *zap.Logger

	fleeSuccessProbability float64
	rng                    *rand.Rand
	now                    func() time.Time
}

// New builds a Combat Engine.
//
// Precondition: characters and items must be non-nil; sink may be nil at
// construction and wired in afterward via SetSink; fleeSuccessProbability
// must be within [0,1].
func New(
	characters *state.CharacterRegistry,
	items worldstore.ItemStore,
	sink EventSink,
	notifier DeathNotifier,
	fleeSuccessProbability float64,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		table:                  make(map[string]*combatant),
		characters:             characters,
		items:                  items,
		sink:                   sink,
		notifier:               notifier,
		fleeSuccessProbability: fleeSuccessProbability,
		rng:                    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:                    time.Now,
		logger:                 logger,
	}
}

// WithMetrics attaches the Prometheus instrument set.
func (e *Engine) WithMetrics(m *observability.Metrics) *Engine {
	e.metrics = m
	return e
}

// SetSink wires the Event Propagator after construction, for callers that
// need the Engine before the Propagator exists (the Propagator itself has
// no dependency on the Engine, but both it and the Engine commonly need to
// be wired to the same transport.Server first).
func (e *Engine) SetSink(sink EventSink) { e.sink = sink }

// StartCombat inserts a new combat entry for attackerID, or re-targets an
// existing one, and emits exactly one combat_start event, per spec.md §4.4.
//
// Precondition: attacker and target must both resolve to living characters.
func (e *Engine) StartCombat(attackerID, targetID string) error {
	attacker, ok := e.characters.Get(attackerID)
	if !ok || !attacker.IsAlive {
		return errAttackerUnavailable
	}
	target, ok := e.characters.Get(targetID)
	if !ok || !target.IsAlive {
		return errTargetUnavailable
	}

	e.mu.Lock()
	e.table[attackerID] = &combatant{targetID: targetID, gauge: 0, speed: attacker.Speed}
	e.mu.Unlock()

	e.sink.Broadcast(&event.Event{
		Type:         event.KindCombatStart,
		OriginRoomID: attacker.CurrentRoomID,
		Visibility:   worldstore.VisibilityRoom,
		ActorID:      attackerID,
		Payload: event.CombatStartPayload{
			AttackerID: attackerID, AttackerName: attacker.Name,
			TargetID: targetID, TargetName: target.Name,
		},
		RelatedEntities: []string{attackerID, targetID},
	})
	return nil
}

// Stop removes attackerID's combat entry, if any, reporting whether it was
// present — backs the `stop` command's "which were stopped" contract.
func (e *Engine) Stop(attackerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.table[attackerID]; !ok {
		return false
	}
	delete(e.table, attackerID)
	return true
}

// InCombat reports whether attackerID currently has an active combat entry.
func (e *Engine) InCombat(attackerID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.table[attackerID]
	return ok
}

// TargetOf returns the character id attackerID is currently fighting.
func (e *Engine) TargetOf(attackerID string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.table[attackerID]
	if !ok {
		return "", false
	}
	return c.targetID, true
}

// RemoveActor drops every combat entry attackerID participates in on either
// side, used for retirement cleanup per spec.md §5 ("Retirement of a
// character cancels any outstanding combat involving it").
func (e *Engine) RemoveActor(actorID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.table, actorID)
	for attackerID, c := range e.table {
		if c.targetID == actorID {
			delete(e.table, attackerID)
		}
	}
}

var (
	errAttackerUnavailable = combatError("attacker is not available to fight")
	errTargetUnavailable   = combatError("target is not available to fight")
)

type combatError string

func (e combatError) Error() string { return string(e) }
