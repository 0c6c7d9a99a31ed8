package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"scooter_simulator/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes client commands to the
// simulation manager.
type Handler struct {
	hub     *Hub
	manager *simulator.Manager
}

func NewHandler(hub *Hub, manager *simulator.Manager) *Handler {
	return &Handler{hub: hub, manager: manager}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendInitialState(client)
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Invalid message: %v", err)
		return
	}

	switch msg.Type {
	case TypeCommand:
		if err := h.runCommand(msg.Command); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendJSON(c, CommandAck{
			Type:    TypeCommandAck,
			Command: msg.Command,
			Status:  h.manager.Status(),
		})

	case TypeSetSpeed:
		applied := h.manager.SetSpeed(msg.Speed)
		h.sendJSON(c, SpeedAck{Type: TypeSpeedAck, Speed: applied})

	case TypePing:
		h.sendJSON(c, Pong{
			Type:      TypePong,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

func (h *Handler) runCommand(command string) error {
	switch command {
	case CommandStart:
		_, err := h.manager.Start()
		return err
	case CommandPause:
		return h.manager.Pause()
	case CommandResume:
		return h.manager.Resume()
	case CommandStop:
		return h.manager.Stop()
	case CommandReset:
		return h.manager.Reset()
	default:
		return errUnknownCommand(command)
	}
}

type errUnknownCommand string

func (e errUnknownCommand) Error() string {
	return "unknown command: " + string(e)
}

func (h *Handler) sendInitialState(c *Client) {
	state := InitialState{
		Type:      TypeInitialState,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if info, ok := h.manager.Snapshot(); ok {
		state.SnapshotInfo = info
	} else {
		state.Status = h.manager.Status()
	}
	h.sendJSON(c, state)
}

func (h *Handler) sendError(c *Client, message string) {
	h.sendJSON(c, ErrorMessage{Type: TypeError, Message: message})
}

func (h *Handler) sendJSON(c *Client, v any) {
	msg, err := marshal(v)
	if err != nil {
		log.Printf("Error marshaling %T: %v", v, err)
		return
	}
	c.Send(msg)
}
