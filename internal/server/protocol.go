// Package server implements the wire protocol transport of spec.md §6: a
// gorilla/websocket duplex channel per connected client, grounded on the
// Clocktower backend's realtime session handling (upgrade → read/write pump
// pair, JSON-enveloped messages, a token-bucket rate limiter).
package server

import (
	"encoding/json"

	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// WSMessage is the envelope every inbound and outbound frame is wrapped in.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types, per spec.md §6.
const (
	msgPlayerJoin       = "player:join"
	msgCharacterSelect  = "character:select"
	msgCharacterList    = "character:list"
	msgCharacterCreate  = "character:create"
	msgGameCommand      = "game:command"
	msgAdminJoin        = "admin:join"
	msgAdminLeave       = "admin:leave"
)

// Outbound message types, per spec.md §6.
const (
	msgGameEvent      = "game:event"
	msgGameOutput     = "game:output"
	msgGameError      = "game:error"
	msgGameDeath      = "game:death"
	msgGameDisconnect = "game:disconnect"
	msgCharacterUpdate = "character:update"
	msgAdminGameEvent = "admin:game-event"
)

// playerJoinPayload is the player:join inbound payload: a bare username,
// lazily provisioning an Account on first sight.
type playerJoinPayload struct {
	Name string `json:"name"`
}

// playerJoinAck acks player:join with the resolved account.
type playerJoinAck struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
}

type characterListPayload struct {
	Username string `json:"username"`
}

type characterSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"maxHp"`
	RoomID string `json:"roomId"`
}

type characterListAck struct {
	Characters []characterSummary `json:"characters"`
}

type characterCreatePayload struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type characterCreateAck struct {
	CharacterID string `json:"characterId"`
}

type characterSelectPayload struct {
	CharacterID string `json:"characterId"`
}

type characterSelectAck struct {
	Output command.StructuredOutput `json:"output"`
}

type gameCommandPayload struct {
	Command string `json:"command"`
}

// gameEventEnvelope is the game:event / admin:game-event outbound payload:
// the persisted event record plus its already-rendered, perspective-specific
// text, so the client never has to re-implement the Event Formatter.
type gameEventEnvelope struct {
	Event    *worldstore.GameEvent `json:"event"`
	Rendered string                `json:"rendered"`
}

// adminGameEventEnvelope additionally carries the full recipient list, the
// omniscient admin view spec.md §4.5 step 4 describes.
type adminGameEventEnvelope struct {
	Event        *worldstore.GameEvent `json:"event"`
	Rendered     string                `json:"rendered"`
	RecipientIDs []string              `json:"recipientIds"`
}

type gameErrorPayload struct {
	Message string `json:"message"`
}

type gameDeathPayload struct {
	Message string `json:"message"`
}

type gameDisconnectPayload struct {
	Reason string `json:"reason"`
}

type characterUpdatePayload struct {
	HP      int `json:"hp"`
	MaxHP   int `json:"maxHp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
}

func encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: raw})
}
