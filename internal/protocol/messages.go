package protocol

import (
	"encoding/json"
	"time"
)

// Inbound message types
const (
	TypeJoin         = "join"
	TypeRefresh      = "refresh"
	TypeRoll         = "roll"
	TypeClearHistory = "clearHistory"
	TypeLeave        = "leave"
)

// Outbound message types
const (
	TypeJoined          = "joined"
	TypeStateRefreshed  = "stateRefreshed"
	TypeRollResult      = "rollResult"
	TypeHistoryCleared  = "historyCleared"
	TypePresenceChanged = "presenceChanged"
	TypeOperationFailed = "operationFailed"
)

// Inbound is the envelope for client messages
type Inbound struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// Outbound is the envelope for server messages
type Outbound struct {
	T string `json:"t"`
	P any    `json:"p,omitempty"`
}

// JoinPayload asks to attach the connection to a room
type JoinPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	ClientID  string `json:"clientId"`
}

// RollPayload requests a dice roll in the caller's room
type RollPayload struct {
	NumDice   int  `json:"numDice"`
	NumGilded int  `json:"numGilded"`
	Hidden    bool `json:"hidden"`
}

// ParticipantView is one participant as shown to a viewer. The
// identity token is populated only in the GM's view.
type ParticipantView struct {
	ConnectionID  string `json:"connectionId"`
	Name          string `json:"name"`
	IsGM          bool   `json:"isGM"`
	IdentityToken string `json:"identityToken,omitempty"`
}

// DieView is one die of a roll result
type DieView struct {
	Value  int  `json:"value"`
	Gilded bool `json:"gilded"`
}

// RollView is a roll as delivered to clients. The roller's identity
// token is never included.
type RollView struct {
	ID        string    `json:"id"`
	By        string    `json:"by"`
	SessionID string    `json:"sessionId"`
	Dice      []DieView `json:"dice"`
	Hidden    bool      `json:"hidden"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomState is the shared payload of joined and stateRefreshed: the
// caller's standing plus everything currently visible to them.
type RoomState struct {
	SessionID    string            `json:"sessionId"`
	IsGM         bool              `json:"isGM"`
	Participants []ParticipantView `json:"participants"`
	History      []RollView        `json:"history"`
}

// PresencePayload carries the participant list after a membership
// change
type PresencePayload struct {
	Participants []ParticipantView `json:"participants"`
}

// HistoryClearedPayload announces a history wipe
type HistoryClearedPayload struct {
	By string `json:"by"`
}

// ErrorPayload carries a soft error to the caller that triggered it
type ErrorPayload struct {
	Message string `json:"message"`
}
