package session

import (
	"time"

	"gildedtable/internal/common/clock"
	"gildedtable/internal/common/identifier"
	"gildedtable/internal/dice"
	"gildedtable/internal/models"
	roomRepo "gildedtable/internal/repositories/room"
)

const (
	// MaxNameLength bounds display names
	MaxNameLength = 24

	// MaxTokenLength bounds client-supplied identity tokens
	MaxTokenLength = 64

	// DefaultName is used when a joiner supplies no display name
	DefaultName = "Anonymous"

	// DefaultGracePeriod is how long an empty room survives before
	// deletion
	DefaultGracePeriod = time.Hour
)

// Config holds configuration for the session service
type Config struct {
	// Repository is the room registry
	Repository roomRepo.Repository

	// Dispatcher delivers outbound messages
	Dispatcher Dispatcher

	// Roller generates dice pools
	Roller dice.Roller

	// Clock is the time source
	Clock clock.Clock

	// IDGenerator mints connection and roll identifiers
	IDGenerator identifier.Generator

	// GracePeriod overrides the room deletion delay. Zero means
	// DefaultGracePeriod.
	GracePeriod time.Duration
}

type JoinInput struct {
	ConnectionID string
	SessionID    string
	Name         string
	ClientID     string
}

type JoinOutput struct {
	SessionID string
	IsGM      bool
}

type RefreshInput struct {
	ConnectionID string
}

type RefreshOutput struct {
	SessionID string
	IsGM      bool
}

type RollInput struct {
	ConnectionID string
	NumDice      int
	NumGilded    int
	Hidden       bool
}

type RollOutput struct {
	Roll *models.Roll

	// GMConnected is false when a hidden roll found no live GM
	// connection to deliver to
	GMConnected bool
}

type ClearHistoryInput struct {
	ConnectionID string
}

type ClearHistoryOutput struct {
}

type LeaveInput struct {
	ConnectionID string
}

type LeaveOutput struct {
	SessionID string
}

type DisconnectInput struct {
	ConnectionID string
}
