package session

// SessionError is a custom error type for session-related errors. All
// of them are soft: they go back to the single caller that triggered
// them and never take the process down.
type SessionError string

// Error implements the error interface
func (e SessionError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrInvalidSessionID  SessionError = "Invalid session ID"
	ErrNotInSession      SessionError = "Not in a session"
	ErrNotGameMaster     SessionError = "Only the GM can clear history"
	ErrGameMasterOffline SessionError = "GM not currently connected"

	ErrNilConfig      SessionError = "config cannot be nil"
	ErrNilRepository  SessionError = "room repository cannot be nil"
	ErrNilDispatcher  SessionError = "dispatcher cannot be nil"
	ErrNilRoller      SessionError = "dice roller cannot be nil"
	ErrNilClock       SessionError = "clock cannot be nil"
	ErrNilIDGenerator SessionError = "ID generator cannot be nil"
)
