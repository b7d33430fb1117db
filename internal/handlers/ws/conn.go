package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single outbound frame
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames
	maxMessageSize = 4096

	// sendBufferSize is the per-connection outbound queue depth
	sendBufferSize = 32
)

// connection is one live websocket client. Outbound frames go through
// the buffered send channel so no caller ever blocks on a socket.
type connection struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

func newConnection(id string, wsConn *websocket.Conn) *connection {
	return &connection{
		id:   id,
		ws:   wsConn,
		send: make(chan []byte, sendBufferSize),
	}
}

// enqueue hands a marshaled frame to the write pump without blocking.
// Returns false when the buffer is full.
func (c *connection) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}
