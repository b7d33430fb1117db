package models

import (
	"sort"
	"time"
)

// DefaultHistoryLimit caps how many rolls a room retains
const DefaultHistoryLimit = 100

// RoomPhase represents the lifecycle state of a room
type RoomPhase string

const (
	// RoomPhaseActive indicates a room with at least one participant,
	// or one whose grace timer has lapsed without deletion
	RoomPhaseActive RoomPhase = "active"

	// RoomPhaseDraining indicates an empty room waiting out its grace
	// period before deletion
	RoomPhaseDraining RoomPhase = "draining"
)

// GMStatus represents the attachment state of a room's GM
type GMStatus string

const (
	// GMStatusUnelected indicates no identity has been elected GM yet
	GMStatusUnelected GMStatus = "unelected"

	// GMStatusDetached indicates a GM is elected but has no live
	// connection
	GMStatusDetached GMStatus = "detached"

	// GMStatusAttached indicates the GM's connection is live
	GMStatusAttached GMStatus = "attached"
)

// Room is the aggregate for one named session: connected participants,
// the GM designation, and the bounded roll history. Rooms are not safe
// for concurrent use; the session service serializes access.
type Room struct {
	id           string
	participants map[string]*Participant
	gmToken      string
	gmConnID     string
	history      []*Roll
	historyLimit int
	phase        RoomPhase
	cleanupTimer *time.Timer
}

// NewRoom creates an empty active room for a normalized session id
func NewRoom(id string, historyLimit int) *Room {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Room{
		id:           id,
		participants: make(map[string]*Participant),
		historyLimit: historyLimit,
		phase:        RoomPhaseActive,
	}
}

// ID returns the normalized session id
func (r *Room) ID() string {
	return r.id
}

// AddParticipant attaches a connection to the room and runs GM
// election: the first identity token seen becomes GM, and a token
// matching the elected GM re-attaches the GM's live connection.
// Returns whether the participant is the GM.
func (r *Room) AddParticipant(p *Participant) bool {
	r.participants[p.ConnectionID] = p

	if r.gmToken == "" {
		r.gmToken = p.IdentityToken
	}
	if p.IdentityToken == r.gmToken {
		r.gmConnID = p.ConnectionID
		return true
	}
	return false
}

// RemoveParticipant detaches a connection. The GM's live attachment is
// cleared when the GM's connection leaves, but the election itself
// survives until the room is deleted.
func (r *Room) RemoveParticipant(connectionID string) (*Participant, bool) {
	p, ok := r.participants[connectionID]
	if !ok {
		return nil, false
	}
	delete(r.participants, connectionID)
	if r.gmConnID == connectionID {
		r.gmConnID = ""
	}
	return p, true
}

// Participant returns the participant for a connection id
func (r *Room) Participant(connectionID string) (*Participant, bool) {
	p, ok := r.participants[connectionID]
	return p, ok
}

// Participants returns all participants ordered by connection id so
// that fan-out is deterministic
func (r *Room) Participants() []*Participant {
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConnectionID < out[j].ConnectionID
	})
	return out
}

// Empty returns true when no connections are attached
func (r *Room) Empty() bool {
	return len(r.participants) == 0
}

// IsGM reports whether an identity token holds the GM election
func (r *Room) IsGM(identityToken string) bool {
	return r.gmToken != "" && identityToken == r.gmToken
}

// GMConnectionID returns the GM's live connection, if attached
func (r *Room) GMConnectionID() (string, bool) {
	return r.gmConnID, r.gmConnID != ""
}

// GMStatus returns the current GM attachment state
func (r *Room) GMStatus() GMStatus {
	switch {
	case r.gmToken == "":
		return GMStatusUnelected
	case r.gmConnID == "":
		return GMStatusDetached
	default:
		return GMStatusAttached
	}
}

// AppendRoll records a roll, evicting the oldest entry past the cap
func (r *Room) AppendRoll(roll *Roll) {
	r.history = append(r.history, roll)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}

// VisibleHistory returns, oldest first, the rolls a viewer may see:
// everything for the GM, the non-hidden subsequence for anyone else
func (r *Room) VisibleHistory(identityToken string) []*Roll {
	if r.IsGM(identityToken) {
		out := make([]*Roll, len(r.history))
		copy(out, r.history)
		return out
	}
	out := make([]*Roll, 0, len(r.history))
	for _, roll := range r.history {
		if !roll.Hidden {
			out = append(out, roll)
		}
	}
	return out
}

// HistoryLen returns the number of retained rolls
func (r *Room) HistoryLen() int {
	return len(r.history)
}

// ClearHistory drops all retained rolls
func (r *Room) ClearHistory() {
	r.history = nil
}

// Phase returns the room's lifecycle phase
func (r *Room) Phase() RoomPhase {
	return r.phase
}

// BeginDraining arms the grace timer. Arming is idempotent: a room
// already draining keeps its original timer and the caller's is
// discarded.
func (r *Room) BeginDraining(timer *time.Timer) bool {
	if r.phase == RoomPhaseDraining {
		if timer != nil {
			timer.Stop()
		}
		return false
	}
	r.phase = RoomPhaseDraining
	r.cleanupTimer = timer
	return true
}

// Reactivate cancels a pending deletion, returning the room to the
// active phase. Returns the cancelled timer, if any.
func (r *Room) Reactivate() *time.Timer {
	timer := r.cleanupTimer
	r.cleanupTimer = nil
	r.phase = RoomPhaseActive
	return timer
}

// FinishDraining releases the timer handle after an expiry that did
// not delete the room (non-empty history). A later drain re-arms.
func (r *Room) FinishDraining() {
	r.cleanupTimer = nil
	r.phase = RoomPhaseActive
}
