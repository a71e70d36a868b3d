package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/textworld/internal/game/character"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// handleLook returns the current room's description, sorted exits, present
// characters (excluding self), and items. Emits no events.
func handleLook(ctx context.Context, d *Dispatcher, actor *character.Character, _ ParseResult) CommandResult {
	return ok(d.roomView(ctx, actor))
}

func (d *Dispatcher) roomView(ctx context.Context, actor *character.Character) *StructuredOutput {
	room, roomFound := d.rooms.GetRoom(actor.CurrentRoomID)
	if !roomFound {
		return &StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You are nowhere."}
	}

	exits := make([]string, 0)
	for _, dir := range room.SortedExitDirections() {
		exits = append(exits, string(dir))
	}

	names := make([]string, 0)
	for _, c := range d.characters.InRoom(room.ID) {
		if c.ID == actor.ID || !c.IsAlive {
			continue
		}
		names = append(names, c.Name)
	}
	sort.Strings(names)

	itemNames := make([]string, 0)
	if items, err := d.items.ListByRoom(ctx, room.ID); err == nil {
		for _, it := range items {
			itemNames = append(itemNames, it.Name)
		}
		sort.Strings(itemNames)
	}

	return &StructuredOutput{
		Kind: OutputRoom,
		Room: &RoomView{
			RoomID: room.ID, Name: room.Name, Description: room.Description,
			Exits: exits, Characters: names, Items: itemNames,
		},
	}
}

// handleGo resolves dir against the current room's exits, moves the actor,
// and emits movement + a private room_description, per spec.md §4.3.
func (d *Dispatcher) handleGo(ctx context.Context, actor *character.Character, dir world.Direction) CommandResult {
	room, roomFound := d.rooms.GetRoom(actor.CurrentRoomID)
	if !roomFound {
		return fail("you are nowhere")
	}
	destID, exists := room.Exits[dir]
	if !exists {
		return fail("You can't go that way")
	}

	fromRoomID := actor.CurrentRoomID
	if err := d.characters.Move(actor.ID, destID); err != nil {
		return fail(err.Error())
	}

	moveEvt := &event.Event{
		Type: event.KindMovement, OriginRoomID: fromRoomID,
		Visibility: worldstore.VisibilityRoom, ActorID: actor.ID,
		Payload: event.MovementPayload{
			ActorID: actor.ID, ActorName: actor.Name,
			FromRoomID: fromRoomID, ToRoomID: destID, Direction: string(dir),
		},
		RelatedEntities: []string{actor.ID},
	}
	d.sink.Broadcast(moveEvt)

	roomOutput := d.roomView(ctx, actor)
	descEvt := &event.Event{
		Type: event.KindRoomDescription, OriginRoomID: destID,
		Visibility: worldstore.VisibilityPrivate, ActorID: actor.ID,
		Payload: event.RoomDescriptionPayload{
			RoomID: roomOutput.Room.RoomID, Name: roomOutput.Room.Name,
			Description: roomOutput.Room.Description, Exits: roomOutput.Room.Exits,
			Characters: roomOutput.Room.Characters, Items: roomOutput.Room.Items,
		},
		RelatedEntities: []string{actor.ID},
	}
	d.sink.Broadcast(descEvt)

	return ok(roomOutput, moveEvt, descEvt)
}

func directionHandler(dir world.Direction) HandlerFunc {
	return func(ctx context.Context, d *Dispatcher, actor *character.Character, _ ParseResult) CommandResult {
		return d.handleGo(ctx, actor, dir)
	}
}

func goHandler(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Go where?")
	}
	dir, isDirection := resolveDirection(pr.Args[0])
	if !isDirection {
		return fail("You can't go that way")
	}
	return d.handleGo(ctx, actor, dir)
}

// handleSpeech backs say/shout/emote: non-empty message required, emits the
// same-named event kind.
func handleSpeech(kind event.Kind) HandlerFunc {
	return func(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
		if pr.RawArgs == "" {
			return fail("Say what?")
		}
		visibility := worldstore.VisibilityRoom
		payload := event.SpeechPayload{ActorID: actor.ID, ActorName: actor.Name}
		if kind == event.KindEmote {
			payload.Action = pr.RawArgs
		} else {
			payload.Message = pr.RawArgs
		}
		e := &event.Event{
			Type: kind, OriginRoomID: actor.CurrentRoomID, Visibility: visibility,
			ActorID: actor.ID, Payload: payload, RelatedEntities: []string{actor.ID},
		}
		d.sink.Broadcast(e)
		return ok(nil, e)
	}
}

// handleDirected backs tell/whisper: quoted/`@id:<uuid>`/first-word target
// parsing, then the remainder is the message.
func handleDirected(kind event.Kind) HandlerFunc {
	return func(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
		targetSpec, message, explicitID := ParseTarget(pr.RawArgs)
		if targetSpec == "" {
			return fail("Tell whom?")
		}
		if message == "" {
			return fail("Tell them what?")
		}

		target := d.resolveTarget(actor, targetSpec, explicitID)
		if target == nil {
			return fail(fmt.Sprintf("There is no one here named %q.", targetSpec))
		}
		if target.ID == actor.ID {
			return fail("You can't talk to yourself.")
		}

		visibility := worldstore.VisibilityRoom
		if kind == event.KindWhisper {
			visibility = worldstore.VisibilityPrivate
		}

		e := &event.Event{
			Type: kind, OriginRoomID: actor.CurrentRoomID, Visibility: visibility,
			ActorID: actor.ID,
			Payload: event.DirectedPayload{
				ActorID: actor.ID, ActorName: actor.Name,
				TargetID: target.ID, TargetName: target.Name, Message: message,
			},
			RelatedEntities: []string{actor.ID, target.ID},
		}
		if visibility == worldstore.VisibilityPrivate {
			e.ExplicitRecipients = []string{actor.ID, target.ID}
		}
		d.sink.Broadcast(e)
		return ok(nil, e)
	}
}

// resolveTarget resolves a target specifier against characters present in
// actor's room, supporting the explicit `@id:<uuid>` form.
func (d *Dispatcher) resolveTarget(actor *character.Character, spec string, explicitID bool) *character.Character {
	if explicitID {
		c, ok := d.characters.Get(spec)
		if !ok || c.CurrentRoomID != actor.CurrentRoomID {
			return nil
		}
		return c
	}
	return d.characters.FindInRoom(actor.CurrentRoomID, spec, actor.ID)
}

// handleInventory returns the actor's held items.
func handleInventory(ctx context.Context, d *Dispatcher, actor *character.Character, _ ParseResult) CommandResult {
	items, err := d.items.ListByCharacter(ctx, actor.ID)
	if err != nil {
		return fail("You can't check your inventory right now.")
	}
	views := make([]InventoryItemView, 0, len(items))
	for _, it := range items {
		views = append(views, InventoryItemView{ID: it.ID, Name: it.Name, Type: it.Type, Equipped: it.IsEquipped})
	}
	return ok(&StructuredOutput{Kind: OutputInventory, Inventory: &InventoryView{Items: views}})
}

// findItemByName greedily matches target as a case-insensitive name prefix,
// preferring the shortest matching name, mirroring
// state.CharacterRegistry.FindInRoom's tiebreak rule.
func findItemByName(items []*inventory.Item, target string) *inventory.Item {
	lower := strings.ToLower(target)
	var best *inventory.Item
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Name), lower) {
			if best == nil || len(it.Name) < len(best.Name) {
				best = it
			}
		}
	}
	return best
}

// handleTake moves an item from the current room into the actor's
// inventory. spawn_point items are not takeable.
func handleTake(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Take what?")
	}
	name := strings.Join(pr.Args, " ")
	roomItems, err := d.items.ListByRoom(ctx, actor.CurrentRoomID)
	if err != nil {
		return fail("You can't take anything right now.")
	}
	item := findItemByName(roomItems, name)
	if item == nil {
		return fail(fmt.Sprintf("There is no %q here.", name))
	}
	if !item.IsTakeable() {
		return fail(fmt.Sprintf("You can't take the %s.", item.Name))
	}

	item.MoveToCharacter(actor.ID)
	if err := d.items.Save(ctx, item); err != nil {
		return fail("You can't take that right now.")
	}

	e := &event.Event{
		Type: event.KindItemPickup, OriginRoomID: actor.CurrentRoomID,
		Visibility: worldstore.VisibilityRoom, ActorID: actor.ID,
		Payload: event.ItemPayload{ActorID: actor.ID, ActorName: actor.Name, ItemID: item.ID, ItemName: item.Name},
		RelatedEntities: []string{actor.ID, item.ID},
	}
	d.sink.Broadcast(e)
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You take the %s.", item.Name)}, e)
}

// handleDrop moves an item from the actor's inventory into the current room.
func handleDrop(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Drop what?")
	}
	name := strings.Join(pr.Args, " ")
	held, err := d.items.ListByCharacter(ctx, actor.ID)
	if err != nil {
		return fail("You can't drop anything right now.")
	}
	item := findItemByName(held, name)
	if item == nil {
		return fail(fmt.Sprintf("You aren't carrying a %q.", name))
	}

	item.MoveToRoom(actor.CurrentRoomID)
	if err := d.items.Save(ctx, item); err != nil {
		return fail("You can't drop that right now.")
	}
	d.recomputeStats(ctx, actor)

	e := &event.Event{
		Type: event.KindItemDrop, OriginRoomID: actor.CurrentRoomID,
		Visibility: worldstore.VisibilityRoom, ActorID: actor.ID,
		Payload: event.ItemPayload{ActorID: actor.ID, ActorName: actor.Name, ItemID: item.ID, ItemName: item.Name},
		RelatedEntities: []string{actor.ID, item.ID},
	}
	d.sink.Broadcast(e)
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You drop the %s.", item.Name)}, e)
}

// handleEquip equips a held item, unequipping any existing item of the same
// slot (weapon/armor), and recomputes attack/defense.
func handleEquip(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Equip what?")
	}
	name := strings.Join(pr.Args, " ")
	held, err := d.items.ListByCharacter(ctx, actor.ID)
	if err != nil {
		return fail("You can't equip anything right now.")
	}
	item := findItemByName(held, name)
	if item == nil {
		return fail(fmt.Sprintf("You aren't carrying a %q.", name))
	}
	if item.Type != inventory.TypeWeapon && item.Type != inventory.TypeArmor {
		return fail(fmt.Sprintf("You can't equip the %s.", item.Name))
	}

	for _, other := range held {
		if other.ID != item.ID && other.Type == item.Type && other.IsEquipped {
			other.IsEquipped = false
			if err := d.items.Save(ctx, other); err != nil {
				return fail("You can't equip that right now.")
			}
		}
	}

	item.IsEquipped = true
	if err := d.items.Save(ctx, item); err != nil {
		return fail("You can't equip that right now.")
	}
	d.recomputeStats(ctx, actor)

	e := &event.Event{
		Type: event.KindItemEquip, OriginRoomID: actor.CurrentRoomID,
		Visibility: worldstore.VisibilityRoom, ActorID: actor.ID,
		Payload: event.ItemPayload{ActorID: actor.ID, ActorName: actor.Name, ItemID: item.ID, ItemName: item.Name, IsEquipped: true},
		RelatedEntities: []string{actor.ID, item.ID},
	}
	d.sink.Broadcast(e)
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You equip the %s.", item.Name)}, e)
}

// handleUnequip unequips a held item and recomputes attack/defense.
func handleUnequip(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Unequip what?")
	}
	name := strings.Join(pr.Args, " ")
	held, err := d.items.ListByCharacter(ctx, actor.ID)
	if err != nil {
		return fail("You can't unequip anything right now.")
	}
	item := findItemByName(held, name)
	if item == nil || !item.IsEquipped {
		return fail(fmt.Sprintf("You aren't wearing or wielding a %q.", name))
	}

	item.IsEquipped = false
	if err := d.items.Save(ctx, item); err != nil {
		return fail("You can't unequip that right now.")
	}
	d.recomputeStats(ctx, actor)

	e := &event.Event{
		Type: event.KindItemEquip, OriginRoomID: actor.CurrentRoomID,
		Visibility: worldstore.VisibilityRoom, ActorID: actor.ID,
		Payload: event.ItemPayload{ActorID: actor.ID, ActorName: actor.Name, ItemID: item.ID, ItemName: item.Name, IsEquipped: false},
		RelatedEntities: []string{actor.ID, item.ID},
	}
	d.sink.Broadcast(e)
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You unequip the %s.", item.Name)}, e)
}

// recomputeStats reapplies attack = 10 + Σweapon.damage / defense = 5 +
// Σarmor.defense from the actor's currently equipped items.
func (d *Dispatcher) recomputeStats(ctx context.Context, actor *character.Character) {
	held, err := d.items.ListByCharacter(ctx, actor.ID)
	if err != nil {
		return
	}
	weaponDamage, armorDefense := inventory.EquippedStatTotals(held, actor.ID)
	actor.RecomputeStats(weaponDamage, armorDefense)
}

// handleExamine resolves a target greedily against inventory+room items,
// then characters in room, returning a structured detail view.
func handleExamine(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Examine what?")
	}
	name := strings.Join(pr.Args, " ")

	if held, err := d.items.ListByCharacter(ctx, actor.ID); err == nil {
		if item := findItemByName(held, name); item != nil {
			return ok(itemDetailOutput(item))
		}
	}
	if roomItems, err := d.items.ListByRoom(ctx, actor.CurrentRoomID); err == nil {
		if item := findItemByName(roomItems, name); item != nil {
			return ok(itemDetailOutput(item))
		}
	}
	if target := d.characters.FindInRoom(actor.CurrentRoomID, name, actor.ID); target != nil {
		return ok(&StructuredOutput{
			Kind: OutputCharacterDetail,
			CharacterDetail: &CharacterDetailView{
				ID: target.ID, Name: target.Name, Description: target.Description,
				HealthWord: target.HealthWord(), IsNPC: target.IsNPC(),
			},
		})
	}
	return fail(fmt.Sprintf("You don't see %q here.", name))
}

func itemDetailOutput(item *inventory.Item) *StructuredOutput {
	return &StructuredOutput{
		Kind: OutputItemDetail,
		ItemDetail: &ItemDetailView{
			ID: item.ID, Name: item.Name, Description: item.Description,
			Type: item.Type, Stats: item.Stats,
		},
	}
}

// handleAttack pre-checks target presence/aliveness, then delegates to the
// Combat System.
func handleAttack(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 0 {
		return fail("Attack whom?")
	}
	name := strings.Join(pr.Args, " ")
	target := d.characters.FindInRoom(actor.CurrentRoomID, name, actor.ID)
	if target == nil {
		return fail(fmt.Sprintf("There is no one here named %q.", name))
	}
	if target.ID == actor.ID {
		return fail("You can't attack yourself.")
	}
	if !target.IsAlive {
		return fail(fmt.Sprintf("%s is already dead.", target.Name))
	}
	if d.listening.IsListening(actor.ID) {
		return fail("You can't fight while trying to eavesdrop.")
	}

	if err := d.combat.StartCombat(actor.ID, target.ID); err != nil {
		return fail(err.Error())
	}
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You attack %s!", target.Name)})
}

// handleFlee delegates to the Combat System's Flee, performing a `go
// <random-exit>` on success.
func handleFlee(ctx context.Context, d *Dispatcher, actor *character.Character, _ ParseResult) CommandResult {
	room, roomFound := d.rooms.GetRoom(actor.CurrentRoomID)
	if !roomFound {
		return fail("You can't flee from nowhere.")
	}
	dir, fled, err := d.combat.Flee(actor.ID, room.Exits)
	if err != nil {
		return fail(err.Error())
	}
	if !fled {
		return fail("You fail to escape!")
	}
	return d.handleGo(ctx, actor, dir)
}

// handleStop stops combat and listening if either is active, reporting
// which were stopped.
func handleStop(ctx context.Context, d *Dispatcher, actor *character.Character, _ ParseResult) CommandResult {
	stoppedCombat := d.combat.Stop(actor.ID)
	stoppedListening := d.listening.Stop(actor.ID)

	switch {
	case stoppedCombat && stoppedListening:
		return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You stop fighting and stop listening in."})
	case stoppedCombat:
		return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You stop fighting."})
	case stoppedListening:
		return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You stop listening in."})
	default:
		return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You aren't fighting or listening to anything."})
	}
}

// handleListen registers observer→subject in the Listening Registry, or
// clears the subscription with `listen stop`. Fails if the actor is in
// combat.
func handleListen(ctx context.Context, d *Dispatcher, actor *character.Character, pr ParseResult) CommandResult {
	if len(pr.Args) == 1 && strings.EqualFold(pr.Args[0], "stop") {
		d.listening.Stop(actor.ID)
		return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: "You stop listening in."})
	}
	if len(pr.Args) == 0 {
		return fail("Listen to whom?")
	}
	if d.combat.InCombat(actor.ID) {
		return fail("You can't eavesdrop while fighting.")
	}

	name := strings.Join(pr.Args, " ")
	target := d.characters.FindInRoom(actor.CurrentRoomID, name, actor.ID)
	if target == nil {
		return fail(fmt.Sprintf("There is no one here named %q.", name))
	}

	d.listening.Listen(actor.ID, target.ID)
	return ok(&StructuredOutput{Kind: OutputSystemMessage, SystemMessage: fmt.Sprintf("You start listening in on %s.", target.Name)})
}
