package ws

import (
	"encoding/json"

	"scooter_simulator/internal/simulator"
)

// The wire protocol is flat: every message carries its discriminator in
// the top-level "type" field alongside its payload fields.

// Message type constants
const (
	// Client -> Server
	TypeCommand  = "command"
	TypeSetSpeed = "set_speed"
	TypePing     = "ping"

	// Server -> Client
	TypeInitialState = "initial_state"
	TypeStateUpdate  = "state_update"
	TypeCommandAck   = "command_ack"
	TypeSpeedAck     = "speed_ack"
	TypePong         = "pong"
	TypeError        = "error"
)

// Commands accepted in a TypeCommand message.
const (
	CommandStart  = "start"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandStop   = "stop"
	CommandReset  = "reset"
)

// ClientMessage is any inbound message; unused fields stay zero.
type ClientMessage struct {
	Type    string  `json:"type"`
	Command string  `json:"command,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
}

// InitialState is sent once after a client connects.
type InitialState struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	simulator.SnapshotInfo
}

// CommandAck confirms a control command.
type CommandAck struct {
	Type    string           `json:"type"`
	Command string           `json:"command"`
	Status  simulator.Status `json:"status"`
}

// SpeedAck confirms a speed change with the applied (clamped) value.
type SpeedAck struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed"`
}

// Pong answers a client ping.
type Pong struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// ErrorMessage reports a failed command to the offending client only.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
