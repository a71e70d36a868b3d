// Package command implements the Command Queue and Command Dispatcher of
// spec.md §4.2/§4.3.
package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/combat"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// EventSink is the subset of event.Propagator the dispatcher depends on.
type EventSink interface {
	Broadcast(e *event.Event)
}

// Dispatcher resolves parsed command lines to handlers and runs them,
// carrying every collaborator spec.md §4.3's verbs need: the live character
// and item registries, the room graph, the Listening Registry, the Combat
// Engine, and the Event Propagator's broadcast entry point.
type Dispatcher struct {
	registry   *Registry
	characters *state.CharacterRegistry
	items      worldstore.ItemStore
	rooms      *world.Manager
	listening  *listening.Registry
	combat     *combat.Engine
	sink       EventSink
	now        func() time.Time
	logger     *zap.Logger
}

// New builds a Dispatcher with the default built-in command registry.
//
// Precondition: every collaborator argument must be non-nil.
func New(
	characters *state.CharacterRegistry,
	items worldstore.ItemStore,
	rooms *world.Manager,
	listeningReg *listening.Registry,
	combatEngine *combat.Engine,
	sink EventSink,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:   DefaultRegistry(),
		characters: characters,
		items:      items,
		rooms:      rooms,
		listening:  listeningReg,
		combat:     combatEngine,
		sink:       sink,
		now:        time.Now,
		logger:     logger,
	}
}

// Dispatch parses and runs a single command line on behalf of actorID.
//
// Postcondition: returns an unsuccessful CommandResult (never a panic) when
// the actor no longer resolves to a living character, per the Command
// Queue's drop-with-a-warning contract in spec.md §4.2 — the caller (the
// Game Loop's drain step) is expected to log the warning using Error.
func (d *Dispatcher) Dispatch(ctx context.Context, actorID, line string) CommandResult {
	actor, ok := d.characters.Get(actorID)
	if !ok || !actor.IsAlive {
		return fail(fmt.Sprintf("actor %q no longer resolves to a living character", actorID))
	}

	pr := Parse(line)
	if pr.Command == "" {
		return fail("empty command")
	}

	if dir, isDirection := resolveDirection(pr.Command); isDirection {
		return d.handleGo(ctx, actor, dir)
	}

	cmd, found := d.registry.Resolve(pr.Command)
	if !found {
		return fail("Unknown command")
	}
	return cmd.Handler(ctx, d, actor, pr)
}

// resolveDirection reports whether token names a standard direction or one
// of its single/two-letter aliases, expanding the directional shortcut to
// `go <direction>` per spec.md §4.3.
func resolveDirection(token string) (world.Direction, bool) {
	if dir, ok := world.DirectionAliases[token]; ok {
		return dir, true
	}
	dir := world.Direction(token)
	if dir.IsStandard() {
		return dir, true
	}
	return "", false
}
