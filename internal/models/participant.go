package models

// Participant represents one live connection's membership in a room
type Participant struct {
	// ConnectionID is the transient transport connection identifier
	ConnectionID string

	// Name is the display name supplied at join time
	Name string

	// IdentityToken is the client-asserted identity surviving
	// reconnects, distinct from the connection id
	IdentityToken string
}
