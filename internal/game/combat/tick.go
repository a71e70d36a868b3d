package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// Tick accumulates each attacker's gauge by its speed and resolves exactly
// one swing for every attacker whose gauge crosses 100, per spec.md §4.4's
// ordering guarantee. Combatants are snapshotted before resolution so a
// death mid-tick cannot skip or duplicate another attacker's swing.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	attackerIDs := make([]string, 0, len(e.table))
	for id, c := range e.table {
		c.gauge += float64(c.speed)
		attackerIDs = append(attackerIDs, id)
	}
	e.mu.Unlock()

	for _, attackerID := range attackerIDs {
		e.mu.Lock()
		c, ok := e.table[attackerID]
		ready := ok && c.gauge >= 100
		if ready {
			c.gauge -= 100
		}
		e.mu.Unlock()
		if !ready {
			continue
		}
		e.resolveSwing(ctx, attackerID)
	}
}

func (e *Engine) resolveSwing(ctx context.Context, attackerID string) {
	attacker, ok := e.characters.Get(attackerID)
	if !ok || !attacker.IsAlive {
		e.mu.Lock()
		delete(e.table, attackerID)
		e.mu.Unlock()
		return
	}

	e.mu.RLock()
	c, ok := e.table[attackerID]
	var targetID string
	if ok {
		targetID = c.targetID
	}
	e.mu.RUnlock()
	if !ok {
		return
	}

	target, ok := e.characters.Get(targetID)
	if !ok || !target.IsAlive || target.CurrentRoomID != attacker.CurrentRoomID {
		e.mu.Lock()
		delete(e.table, attackerID)
		e.mu.Unlock()
		return
	}

	damage := attacker.Attack - target.Defense
	if damage < 1 {
		damage = 1
	}
	target.ApplyDamage(damage, e.now())

	if e.metrics != nil {
		e.metrics.CombatSwingsTotal.Inc()
	}

	e.sink.Broadcast(&event.Event{
		Type:         event.KindCombatHit,
		OriginRoomID: attacker.CurrentRoomID,
		Visibility:   worldstore.VisibilityRoom,
		ActorID:      attackerID,
		Payload: event.CombatHitPayload{
			AttackerID: attackerID, AttackerName: attacker.Name,
			TargetID: targetID, TargetName: target.Name,
			Damage: damage, TargetHP: target.HP, TargetMaxHP: target.MaxHP,
		},
		RelatedEntities: []string{attackerID, targetID},
	})

	if !target.IsAlive {
		e.handleDeath(ctx, target, attackerID)
	}
}

// handleDeath removes every combat entry referencing the victim, drops its
// inventory into the room, creates a corpse item, and emits a death event,
// per spec.md §4.4's death handling.
func (e *Engine) handleDeath(ctx context.Context, victim *character.Character, killerID string) {
	e.mu.Lock()
	delete(e.table, victim.ID)
	for attackerID, c := range e.table {
		if c.targetID == victim.ID {
			delete(e.table, attackerID)
		}
	}
	e.mu.Unlock()

	e.createCorpse(ctx, victim)

	e.sink.Broadcast(&event.Event{
		Type:         event.KindDeath,
		OriginRoomID: victim.CurrentRoomID,
		Visibility:   worldstore.VisibilityRoom,
		ActorID:      victim.ID,
		Payload: event.DeathPayload{
			VictimID: victim.ID, VictimName: victim.Name, KillerID: killerID,
		},
		RelatedEntities: []string{victim.ID, killerID},
	})

	if !victim.IsNPC() && e.notifier != nil {
		e.notifier.NotifyDeath(victim.ID)
	}
}

// createCorpse relocates every item the victim held (equipped or not) into
// their room and inserts a misc "corpse" item describing its contents,
// matching spec.md §4.4's "drops its inventory" death behaviour.
func (e *Engine) createCorpse(ctx context.Context, victim *character.Character) {
	if e.items == nil {
		return
	}
	held, err := e.items.ListByCharacter(ctx, victim.ID)
	if err != nil {
		e.logger.Warn("combat: failed to list victim inventory for corpse creation",
			zap.String("character_id", victim.ID), zap.Error(err))
		return
	}

	names := make([]string, 0, len(held))
	for _, it := range held {
		it.MoveToRoom(victim.CurrentRoomID)
		if saveErr := e.items.Save(ctx, it); saveErr != nil {
			e.logger.Warn("combat: failed to drop item onto corpse room",
				zap.String("item_id", it.ID), zap.Error(saveErr))
			continue
		}
		names = append(names, it.Name)
	}

	description := fmt.Sprintf("The corpse of %s.", victim.Name)
	if len(names) > 0 {
		description += " It is carrying: " + joinNames(names) + "."
	}

	corpse := &inventory.Item{
		ID:          "corpse-" + victim.ID,
		Name:        victim.Name + "'s corpse",
		Description: description,
		Type:        inventory.TypeMisc,
		RoomID:      victim.CurrentRoomID,
	}
	if err := e.items.Save(ctx, corpse); err != nil {
		e.logger.Warn("combat: failed to save corpse item",
			zap.String("character_id", victim.ID), zap.Error(err))
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
