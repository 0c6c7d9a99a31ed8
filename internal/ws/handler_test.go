package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scooter_simulator/internal/simulator"
)

func smallConfig() simulator.Config {
	cfg := simulator.DefaultConfig()
	cfg.GridWidth = 20
	cfg.GridHeight = 20
	cfg.MaxDurationSeconds = 3600
	cfg.NumStations = 2
	cfg.SlotsPerStation = 4
	cfg.InitialBatteriesPerStation = 2
	cfg.NumScooters = 5
	seed := int64(42)
	cfg.RandomSeed = &seed
	return cfg
}

func dialTestServer(t *testing.T, manager *simulator.Manager) *websocket.Conn {
	t.Helper()

	handler := NewHandler(NewHub(), manager)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHandler_SendsInitialStateOnConnect(t *testing.T) {
	manager := simulator.NewManager()
	require.NoError(t, manager.SetConfig(smallConfig()))

	conn := dialTestServer(t, manager)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeInitialState, msg["type"])
	assert.Equal(t, string(simulator.StatusIdle), msg["status"])
	assert.NotEmpty(t, msg["timestamp"])

	snapshot, ok := msg["snapshot"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, snapshot["scooters"], 5)
}

func TestHandler_InitialStateWithoutConfig(t *testing.T) {
	conn := dialTestServer(t, simulator.NewManager())

	msg := readMessage(t, conn)
	assert.Equal(t, TypeInitialState, msg["type"])
	assert.Equal(t, string(simulator.StatusIdle), msg["status"])
}

func TestHandler_PingPong(t *testing.T) {
	conn := dialTestServer(t, simulator.NewManager())
	readMessage(t, conn) // initial state

	writeMessage(t, conn, ClientMessage{Type: TypePing})

	msg := readMessage(t, conn)
	assert.Equal(t, TypePong, msg["type"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestHandler_SetSpeedAcksClampedValue(t *testing.T) {
	manager := simulator.NewManager()
	conn := dialTestServer(t, manager)
	readMessage(t, conn) // initial state

	writeMessage(t, conn, ClientMessage{Type: TypeSetSpeed, Speed: 9999})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeSpeedAck, msg["type"])
	assert.Equal(t, 100.0, msg["speed"])
	assert.Equal(t, 100.0, manager.Speed())
}

func TestHandler_CommandWithoutConfigReportsError(t *testing.T) {
	conn := dialTestServer(t, simulator.NewManager())
	readMessage(t, conn) // initial state

	writeMessage(t, conn, ClientMessage{Type: TypeCommand, Command: CommandStart})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg["type"])
	assert.Contains(t, msg["message"], "no configuration")
}

func TestHandler_UnknownCommandReportsError(t *testing.T) {
	conn := dialTestServer(t, simulator.NewManager())
	readMessage(t, conn) // initial state

	writeMessage(t, conn, ClientMessage{Type: TypeCommand, Command: "explode"})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg["type"])
	assert.Contains(t, msg["message"], "unknown command")
}

func TestHandler_StartStopCommands(t *testing.T) {
	manager := simulator.NewManager()
	require.NoError(t, manager.SetConfig(smallConfig()))
	t.Cleanup(func() { manager.Stop() })

	conn := dialTestServer(t, manager)
	readMessage(t, conn) // initial state

	writeMessage(t, conn, ClientMessage{Type: TypeCommand, Command: CommandStart})
	msg := readMessage(t, conn)
	assert.Equal(t, TypeCommandAck, msg["type"])
	assert.Equal(t, CommandStart, msg["command"])
	assert.Equal(t, string(simulator.StatusRunning), msg["status"])

	writeMessage(t, conn, ClientMessage{Type: TypeCommand, Command: CommandStop})
	msg = readMessage(t, conn)
	assert.Equal(t, TypeCommandAck, msg["type"])
	assert.Equal(t, string(simulator.StatusStopped), msg["status"])
}

func TestBridge_BroadcastsStateUpdates(t *testing.T) {
	hub := NewHub()
	client := newTestClient(4)
	hub.Register(client)

	bridge := NewBridge(hub)
	bridge.OnStateUpdate(simulator.StateUpdate{
		Type:           "state_update",
		SimulationTime: 120,
		Tick:           7,
		Status:         simulator.StatusRunning,
	})

	require.Len(t, client.send, 1)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(<-client.send, &msg))
	assert.Equal(t, "state_update", msg["type"])
	assert.Equal(t, 120.0, msg["simulation_time"])
	assert.Equal(t, 7.0, msg["tick"])
}
