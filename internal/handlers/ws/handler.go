package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gildedtable/internal/common/identifier"
	"gildedtable/internal/protocol"
	"gildedtable/internal/services/session"
)

// Define errors
var (
	ErrNilConfig      = errors.New("config cannot be nil")
	ErrNilService     = errors.New("session service cannot be nil")
	ErrNilRegistry    = errors.New("connection registry cannot be nil")
	ErrNilIDGenerator = errors.New("ID generator cannot be nil")
)

// Config holds configuration for the websocket handler
type Config struct {
	Service     session.Service
	Registry    *Registry
	IDGenerator identifier.Generator
}

// Handler upgrades HTTP requests to websocket connections and bridges
// the wire protocol to the session service. A dropped transport is
// reported to the service as an implicit disconnect.
type Handler struct {
	service  session.Service
	registry *Registry
	ids      identifier.Generator
	upgrader websocket.Upgrader
}

// New creates a new websocket handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Service == nil {
		return nil, ErrNilService
	}
	if cfg.Registry == nil {
		return nil, ErrNilRegistry
	}
	if cfg.IDGenerator == nil {
		return nil, ErrNilIDGenerator
	}

	return &Handler{
		service:  cfg.Service,
		registry: cfg.Registry,
		ids:      cfg.IDGenerator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Identity is self-asserted anyway; origin checks add
				// nothing here.
				return true
			},
		},
	}, nil
}

// ServeHTTP upgrades the request and runs the connection's pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	c := newConnection(h.ids.NewID(), wsConn)
	h.registry.add(c)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Handler) readPump(c *connection) {
	defer func() {
		h.registry.remove(c.id)
		c.ws.Close()
		if err := h.service.Disconnect(context.Background(), &session.DisconnectInput{ConnectionID: c.id}); err != nil {
			log.Printf("ws: disconnect %s: %v", c.id, err)
		}
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read %s: %v", c.id, err)
			}
			return
		}
		h.dispatch(c, data)
	}
}

func (h *Handler) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch decodes one inbound envelope and routes it to the session
// service. Every failure comes back to the caller as operationFailed;
// nothing here is fatal.
func (h *Handler) dispatch(c *connection, data []byte) {
	var msg protocol.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		h.registry.Send(c.id, operationFailed("malformed message"))
		return
	}

	ctx := context.Background()
	var err error

	switch msg.T {
	case protocol.TypeJoin:
		var p protocol.JoinPayload
		if err = json.Unmarshal(msg.P, &p); err != nil {
			h.registry.Send(c.id, operationFailed("malformed join payload"))
			return
		}
		_, err = h.service.Join(ctx, &session.JoinInput{
			ConnectionID: c.id,
			SessionID:    p.SessionID,
			Name:         p.Name,
			ClientID:     p.ClientID,
		})

	case protocol.TypeRefresh:
		_, err = h.service.Refresh(ctx, &session.RefreshInput{ConnectionID: c.id})

	case protocol.TypeRoll:
		var p protocol.RollPayload
		if len(msg.P) > 0 {
			if err = json.Unmarshal(msg.P, &p); err != nil {
				h.registry.Send(c.id, operationFailed("malformed roll payload"))
				return
			}
		}
		_, err = h.service.Roll(ctx, &session.RollInput{
			ConnectionID: c.id,
			NumDice:      p.NumDice,
			NumGilded:    p.NumGilded,
			Hidden:       p.Hidden,
		})

	case protocol.TypeClearHistory:
		_, err = h.service.ClearHistory(ctx, &session.ClearHistoryInput{ConnectionID: c.id})

	case protocol.TypeLeave:
		_, err = h.service.Leave(ctx, &session.LeaveInput{ConnectionID: c.id})

	default:
		h.registry.Send(c.id, operationFailed(fmt.Sprintf("unknown message type %q", msg.T)))
		return
	}

	if err != nil {
		h.registry.Send(c.id, operationFailed(err.Error()))
	}
}

func operationFailed(message string) *protocol.Outbound {
	return &protocol.Outbound{
		T: protocol.TypeOperationFailed,
		P: &protocol.ErrorPayload{Message: message},
	}
}
