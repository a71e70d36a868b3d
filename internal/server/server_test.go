package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/command"
	"github.com/cory-johannsen/textworld/internal/game/combat"
	"github.com/cory-johannsen/textworld/internal/game/event"
	"github.com/cory-johannsen/textworld/internal/game/listening"
	"github.com/cory-johannsen/textworld/internal/game/session"
	"github.com/cory-johannsen/textworld/internal/game/state"
	"github.com/cory-johannsen/textworld/internal/game/world"
	"github.com/cory-johannsen/textworld/internal/worldstore/memstore"
)

type noopAgentSink struct{}

func (noopAgentSink) DeliverEvent(string, *event.Event) bool { return false }

// testHarness wires a Server against a real Dispatcher/Propagator/command
// Queue, with a background goroutine standing in for the Game Loop's
// command-drain subsystem (drain -> Dispatch -> deliver CommandResult).
type testHarness struct {
	srv    *Server
	queue  *command.Queue
	cancel context.CancelFunc
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	hall := world.NewRoom("hall", "Hall", "A quiet hall.")
	rooms, err := world.NewManager([]*world.Room{hall})
	require.NoError(t, err)

	chars := state.NewCharacterRegistry()
	store := memstore.New()
	queue := command.NewQueue()
	listeningReg := listening.New()

	// Server, combat.Engine, and event.Propagator each depend on one of the
	// others (Server needs the Engine/Propagator; the Engine's DeathNotifier
	// and the Propagator's PlayerSink/AdminSink are the Server itself), so
	// Server is built first with those two fields left nil and patched in
	// once its collaborators exist, mirroring how cmd/gameserver wires them.
	srv := New(config.TransportConfig{ClientURL: "*"}, store.Accounts(), store.Characters(), chars, rooms, queue, nil, nil, session.NewManager(), zap.NewNop())

	combatEngine := combat.New(chars, store.Items(), noopBroadcaster{}, srv, 0.7, zap.NewNop())
	srv.combat = combatEngine

	propagator := event.New(rooms, chars, listeningReg, store.Events(), store.PlayerLogs(), srv, noopAgentSink{}, zap.NewNop(), event.WithAdminSink(srv))
	srv.propagator = propagator

	dispatcher := command.New(chars, store.Items(), rooms, listeningReg, combatEngine, propagator, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, entry := range queue.Drain(10) {
					res := dispatcher.Dispatch(ctx, entry.ActorID, entry.Text)
					if entry.Result != nil {
						select {
						case entry.Result <- res:
						default:
						}
					}
				}
				propagator.FlushQueue(ctx)
			}
		}
	}()

	return &testHarness{srv: srv, queue: queue, cancel: cancel}
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(e *event.Event) {}

func (h *testHarness) stop() { h.cancel() }

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	b, err := encode(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func TestPlayerJoinThenCharacterCreateAndSelect(t *testing.T) {
	h := newTestHarness(t)
	defer h.stop()

	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, msgPlayerJoin, playerJoinPayload{Name: "alice"})
	joinAck := readMessage(t, conn)
	require.Equal(t, msgPlayerJoin, joinAck.Type)
	var joinPayload playerJoinAck
	require.NoError(t, json.Unmarshal(joinAck.Payload, &joinPayload))
	require.Equal(t, "alice", joinPayload.Username)

	send(t, conn, msgCharacterCreate, characterCreatePayload{Username: "alice", Name: "Aldric"})
	createAck := readMessage(t, conn)
	require.Equal(t, msgCharacterCreate, createAck.Type)
	var createPayload characterCreateAck
	require.NoError(t, json.Unmarshal(createAck.Payload, &createPayload))
	require.NotEmpty(t, createPayload.CharacterID)

	send(t, conn, msgCharacterSelect, characterSelectPayload{CharacterID: createPayload.CharacterID})
	selectAck := readMessage(t, conn)
	require.Equal(t, msgCharacterSelect, selectAck.Type)
	var ack characterSelectAck
	require.NoError(t, json.Unmarshal(selectAck.Payload, &ack))
	require.Equal(t, command.OutputRoom, ack.Output.Kind)
	require.Equal(t, "Hall", ack.Output.Room.Name)
}

func TestGameCommandRoundTripsOutput(t *testing.T) {
	h := newTestHarness(t)
	defer h.stop()

	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, msgPlayerJoin, playerJoinPayload{Name: "bob"})
	readMessage(t, conn)

	send(t, conn, msgCharacterCreate, characterCreatePayload{Username: "bob", Name: "Bob"})
	createAck := readMessage(t, conn)
	var createPayload characterCreateAck
	require.NoError(t, json.Unmarshal(createAck.Payload, &createPayload))

	send(t, conn, msgCharacterSelect, characterSelectPayload{CharacterID: createPayload.CharacterID})
	readMessage(t, conn)

	send(t, conn, msgGameCommand, gameCommandPayload{Command: "look"})
	out := readMessage(t, conn)
	require.Equal(t, msgGameOutput, out.Type)
	var output command.StructuredOutput
	require.NoError(t, json.Unmarshal(out.Payload, &output))
	require.Equal(t, command.OutputRoom, output.Kind)
}

func TestUnknownCharacterSelectSendsGameError(t *testing.T) {
	h := newTestHarness(t)
	defer h.stop()

	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, msgCharacterSelect, characterSelectPayload{CharacterID: "does-not-exist"})
	out := readMessage(t, conn)
	require.Equal(t, msgGameError, out.Type)
}
