package models

import (
	"time"
)

// Die is a single die result within a roll
type Die struct {
	// Value is the rolled face, 1 through 6
	Value int

	// Gilded marks the die as gilded, a presentation attribute
	Gilded bool
}

// Roll records one dice roll in a session. Rolls are immutable once
// created; they leave history only by capacity eviction or an explicit
// clear by the GM.
type Roll struct {
	// ID is the unique, time-ordered identifier for the roll
	ID string

	// By is the roller's display name captured at roll time
	By string

	// SessionID is the room the roll was made in
	SessionID string

	// Dice holds the rolled dice in generation order
	Dice []Die

	// Hidden restricts visibility of the roll to the GM
	Hidden bool

	// Timestamp is when the roll was made
	Timestamp time.Time

	// IdentityToken is the roller's identity token. Never exposed to
	// non-GM viewers.
	IdentityToken string
}
