// Package bootstrap holds the startup-time wiring shared by cmd/gameserver
// and cmd/devserver: rebuilding the CharacterRegistry cache from the World
// Store, seeding AI agents from their authored templates, and running one
// Command Queue drain-and-dispatch round per Game Loop tick.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/ai"
	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// LoadPersistedCharacters rebuilds the in-memory CharacterRegistry cache
// from every stored Character, per the registry's own doc comment
// ("the cache rebuilt at startup").
func LoadPersistedCharacters(ctx context.Context, store worldstore.CharacterStore, reg *state.CharacterRegistry) error {
	chars, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing persisted characters: %w", err)
	}
	for _, c := range chars {
		if err := reg.Add(c); err != nil {
			return fmt.Errorf("indexing character %s: %w", c.ID, err)
		}
	}
	return nil
}

// SpawnAgentsFromTemplates seeds a fresh AIAgent (plus its backing
// Character) for every authored Template that has no persisted agent yet,
// so a new deployment's content/ai directory populates the world on first
// boot while a restart leaves existing agents' accumulated state alone.
func SpawnAgentsFromTemplates(
	ctx context.Context,
	dir string,
	rooms *world.Manager,
	charReg *state.CharacterRegistry,
	charStore worldstore.CharacterStore,
	agentStore worldstore.AIAgentStore,
	agentMgr *ai.Manager,
	logger *zap.Logger,
) (int, error) {
	if dir == "" {
		return 0, nil
	}
	templates, err := ai.LoadTemplatesFromDir(dir)
	if err != nil {
		return 0, fmt.Errorf("loading ai agent templates: %w", err)
	}

	spawned := 0
	for _, tmpl := range templates {
		if _, ok := charReg.Get(tmpl.ID); ok {
			continue // already spawned on a prior boot
		}
		if _, ok := rooms.GetRoom(tmpl.HomeRoomID); !ok {
			logger.Warn("ai agent template references unknown home room, skipping",
				zap.String("template", tmpl.ID), zap.String("home_room_id", tmpl.HomeRoomID))
			continue
		}

		now := time.Now()
		c := &character.Character{
			ID:            tmpl.ID,
			Name:          tmpl.Name,
			Description:   tmpl.Description,
			CurrentRoomID: tmpl.HomeRoomID,
			SpawnPointID:  tmpl.HomeRoomID,
			HP:            tmpl.HP,
			MaxHP:         tmpl.MaxHP,
			Attack:        tmpl.Attack,
			Defense:       tmpl.Defense,
			Speed:         tmpl.Speed,
			IsAlive:       true,
			LastActionAt:  now,
			CreatedAt:     now,
		}
		if err := c.Validate(); err != nil {
			return spawned, fmt.Errorf("validating ai agent character %s: %w", tmpl.ID, err)
		}
		if err := charStore.Save(ctx, c); err != nil {
			return spawned, fmt.Errorf("saving ai agent character %s: %w", tmpl.ID, err)
		}
		if err := charReg.Add(c); err != nil {
			return spawned, fmt.Errorf("indexing ai agent character %s: %w", tmpl.ID, err)
		}

		agent := &worldstore.AIAgent{
			ID:               uuid.NewString(),
			CharacterID:      tmpl.ID,
			SystemPrompt:     tmpl.SystemPrompt,
			HomeRoomID:       tmpl.HomeRoomID,
			MaxRoomsFromHome: tmpl.MaxRoomsFromHome,
			Relationships:    tmpl.ToRelationships(now),
			LastActionAt:     now,
		}
		if err := agentStore.Save(ctx, agent); err != nil {
			return spawned, fmt.Errorf("saving ai agent %s: %w", tmpl.ID, err)
		}
		agentMgr.RegisterAgent(agent)
		spawned++
	}
	return spawned, nil
}

// DrainCommandsOnce runs one Game Loop tick's worth of the command-drain
// subsystem: pop up to cap queued entries, dispatch each synchronously, and
// deliver the result back over its per-command channel when one was
// supplied, per command.Entry's "channel-delivered results" contract.
func DrainCommandsOnce(ctx context.Context, queue *command.Queue, dispatcher *command.Dispatcher, drainCap int, metrics *observability.Metrics, logger *zap.Logger) {
	if metrics != nil {
		metrics.CommandQueueDepth.Set(float64(queue.Depth()))
	}
	entries := queue.Drain(drainCap)
	for _, entry := range entries {
		res := dispatcher.Dispatch(ctx, entry.ActorID, entry.Text)
		if !res.Success && logger != nil {
			logger.Warn("command dispatch did not succeed",
				zap.String("actor_id", entry.ActorID),
				zap.String("text", entry.Text),
				zap.String("error", res.Error),
			)
		}
		if entry.Result != nil {
			select {
			case entry.Result <- res:
			default:
				// No one is listening for the result anymore (the session
				// that enqueued it has already disconnected or timed out);
				// the broadcast Events path still delivers the outcome.
			}
		}
	}
}
