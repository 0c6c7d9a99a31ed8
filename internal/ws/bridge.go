package ws

import (
	"log"

	"scooter_simulator/internal/simulator"
)

// Bridge forwards manager state updates to the WebSocket hub. Register
// it once at startup; individual clients share the broadcast stream.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// Attach registers the bridge as a manager observer and returns the
// observer handle.
func (b *Bridge) Attach(manager *simulator.Manager) int {
	return manager.AddObserver(b.OnStateUpdate)
}

func (b *Bridge) OnStateUpdate(update simulator.StateUpdate) {
	msg, err := marshal(update)
	if err != nil {
		log.Printf("Error marshaling state update: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
