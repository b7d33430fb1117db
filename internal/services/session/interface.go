package session

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go gildedtable/internal/services/session Service,Dispatcher

import (
	"context"

	"gildedtable/internal/protocol"
)

// Service defines the interface for session coordination
type Service interface {
	// Join attaches a connection to a room, running GM election and
	// announcing the new presence
	Join(ctx context.Context, input *JoinInput) (*JoinOutput, error)

	// Refresh resends the caller's current room state
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)

	// Roll generates a dice pool, records it, and delivers it to the
	// audience its visibility allows
	Roll(ctx context.Context, input *RollInput) (*RollOutput, error)

	// ClearHistory empties the caller's room history. GM only.
	ClearHistory(ctx context.Context, input *ClearHistoryInput) (*ClearHistoryOutput, error)

	// Leave detaches a connection from its room on explicit request
	Leave(ctx context.Context, input *LeaveInput) (*LeaveOutput, error)

	// Disconnect detaches a connection whose transport dropped. Safe
	// to call for connections that never joined.
	Disconnect(ctx context.Context, input *DisconnectInput) error
}

// Dispatcher is the transport capability the service needs: deliver a
// message to one connection or to a computed target set. Delivery is
// best effort and must not block.
type Dispatcher interface {
	// Send delivers a message to a single connection
	Send(connectionID string, message *protocol.Outbound)

	// SendToSet delivers a message to every connection in the set
	SendToSet(connectionIDs []string, message *protocol.Outbound)
}
