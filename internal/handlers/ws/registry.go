package ws

import (
	"encoding/json"
	"log"
	"sync"

	"gildedtable/internal/protocol"
)

// Registry tracks live connections and implements the session
// service's Dispatcher capability: send a payload to one connection or
// to a computed target set. Delivery is best effort; a slow consumer
// loses frames rather than stalling the room.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
	}
}

func (r *Registry) add(c *connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		delete(r.conns, id)
		close(c.send)
	}
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Send delivers a message to a single connection
func (r *Registry) Send(connectionID string, message *protocol.Outbound) {
	frame, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal %s: %v", message.T, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	r.deliver(connectionID, frame)
}

// SendToSet delivers a message to every connection in the set
func (r *Registry) SendToSet(connectionIDs []string, message *protocol.Outbound) {
	frame, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal %s: %v", message.T, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range connectionIDs {
		r.deliver(id, frame)
	}
}

func (r *Registry) deliver(connectionID string, frame []byte) {
	c, ok := r.conns[connectionID]
	if !ok {
		return
	}
	if !c.enqueue(frame) {
		log.Printf("ws: dropping frame for slow connection %s", connectionID)
	}
}
