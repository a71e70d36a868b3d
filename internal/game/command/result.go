package command

import (
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/inventory"
)

// OutputKind is the closed set of structured output views a handler may
// return, per spec.md §4.3's "Output is a structured record typed by view"
// contract.
type OutputKind string

const (
	OutputRoom             OutputKind = "room"
	OutputInventory        OutputKind = "inventory"
	OutputItemDetail       OutputKind = "item_detail"
	OutputCharacterDetail  OutputKind = "character_detail"
	OutputSystemMessage    OutputKind = "system_message"
)

// RoomView backs the `look` handler's structured reply.
type RoomView struct {
	RoomID      string
	Name        string
	Description string
	Exits       []string
	Characters  []string
	Items       []string
}

// InventoryItemView is one line of an InventoryView.
type InventoryItemView struct {
	ID       string
	Name     string
	Type     inventory.ItemType
	Equipped bool
}

// InventoryView backs the `inventory` handler's structured reply.
type InventoryView struct {
	Items []InventoryItemView
}

// ItemDetailView backs the `examine` handler when the target is an item.
type ItemDetailView struct {
	ID          string
	Name        string
	Description string
	Type        inventory.ItemType
	Stats       inventory.Stats
}

// CharacterDetailView backs the `examine` handler when the target is a
// character, including the HP-fraction health-word bucket.
type CharacterDetailView struct {
	ID          string
	Name        string
	Description string
	HealthWord  string
	IsNPC       bool
}

// StructuredOutput is the tagged union a CommandResult carries, exactly one
// field populated per Kind.
type StructuredOutput struct {
	Kind            OutputKind
	Room            *RoomView
	Inventory       *InventoryView
	ItemDetail      *ItemDetailView
	CharacterDetail *CharacterDetailView
	SystemMessage   string
}

// CommandResult is the Command Dispatcher's per-command reply, matching
// spec.md §4.3's `{success, events[], output?, error?}` exactly. Events have
// already been handed to the Event Propagator's Broadcast by the handler
// (and so do not yet carry a persisted ID — that's assigned at the
// propagator's next FlushQueue); they are echoed here so transport/tests can
// inspect what a command produced without re-subscribing to the propagator.
type CommandResult struct {
	Success bool
	Events  []*event.Event
	Output  *StructuredOutput
	Error   string
}

func fail(errMsg string) CommandResult {
	return CommandResult{Success: false, Error: errMsg}
}

func ok(output *StructuredOutput, events ...*event.Event) CommandResult {
	return CommandResult{Success: true, Output: output, Events: events}
}
