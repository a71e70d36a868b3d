package command

import (
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/world"
)

// BuiltinCommands returns every built-in command from spec.md §4.3.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "north", Aliases: []string{"n"}, Help: "Move north", Category: CategoryMovement, Handler: directionHandler(world.North)},
		{Name: "south", Aliases: []string{"s"}, Help: "Move south", Category: CategoryMovement, Handler: directionHandler(world.South)},
		{Name: "east", Aliases: []string{"e"}, Help: "Move east", Category: CategoryMovement, Handler: directionHandler(world.East)},
		{Name: "west", Aliases: []string{"w"}, Help: "Move west", Category: CategoryMovement, Handler: directionHandler(world.West)},
		{Name: "northeast", Aliases: []string{"ne"}, Help: "Move northeast", Category: CategoryMovement, Handler: directionHandler(world.Northeast)},
		{Name: "northwest", Aliases: []string{"nw"}, Help: "Move northwest", Category: CategoryMovement, Handler: directionHandler(world.Northwest)},
		{Name: "southeast", Aliases: []string{"se"}, Help: "Move southeast", Category: CategoryMovement, Handler: directionHandler(world.Southeast)},
		{Name: "southwest", Aliases: []string{"sw"}, Help: "Move southwest", Category: CategoryMovement, Handler: directionHandler(world.Southwest)},
		{Name: "up", Aliases: []string{"u"}, Help: "Move up", Category: CategoryMovement, Handler: directionHandler(world.Up)},
		{Name: "down", Aliases: []string{"d"}, Help: "Move down", Category: CategoryMovement, Handler: directionHandler(world.Down)},
		{Name: "go", Aliases: []string{"move"}, Help: "Move in a direction (go <direction>)", Category: CategoryMovement, Handler: goHandler},

		{Name: "look", Aliases: []string{"l"}, Help: "Look around the current room", Category: CategoryWorld, Handler: handleLook},
		{Name: "examine", Aliases: []string{"ex"}, Help: "Examine an item or character", Category: CategoryWorld, Handler: handleExamine},
		{Name: "inventory", Aliases: []string{"i"}, Help: "Show what you're carrying", Category: CategoryWorld, Handler: handleInventory},
		{Name: "take", Aliases: []string{"get"}, Help: "Pick up an item from the room", Category: CategoryWorld, Handler: handleTake},
		{Name: "drop", Aliases: nil, Help: "Drop an item from your inventory", Category: CategoryWorld, Handler: handleDrop},
		{Name: "equip", Aliases: nil, Help: "Equip a weapon or armor", Category: CategoryWorld, Handler: handleEquip},
		{Name: "unequip", Aliases: nil, Help: "Unequip a worn or wielded item", Category: CategoryWorld, Handler: handleUnequip},

		{Name: "say", Aliases: nil, Help: "Say something to the room", Category: CategoryCommunication, Handler: handleSpeech(event.KindSpeech)},
		{Name: "shout", Aliases: nil, Help: "Shout something to nearby rooms", Category: CategoryCommunication, Handler: handleSpeech(event.KindShout)},
		{Name: "emote", Aliases: []string{"em"}, Help: "Perform an emote action", Category: CategoryCommunication, Handler: handleSpeech(event.KindEmote)},
		{Name: "tell", Aliases: nil, Help: "Tell someone something (tell <target> <message>)", Category: CategoryCommunication, Handler: handleDirected(event.KindTell)},
		{Name: "whisper", Aliases: nil, Help: "Whisper to someone privately (whisper <target> <message>)", Category: CategoryCommunication, Handler: handleDirected(event.KindWhisper)},
		{Name: "listen", Aliases: []string{"ls"}, Help: "Eavesdrop on a character, or `listen stop`", Category: CategoryCommunication, Handler: handleListen},

		{Name: "attack", Aliases: []string{"kill", "fight", "hit"}, Help: "Attack a target", Category: CategoryCombat, Handler: handleAttack},
		{Name: "flee", Aliases: []string{"run", "escape"}, Help: "Attempt to flee combat", Category: CategoryCombat, Handler: handleFlee},
		{Name: "stop", Aliases: nil, Help: "Stop fighting and/or listening", Category: CategorySystem, Handler: handleStop},
	}
}
