package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"gildedtable/internal/common/clock"
	"gildedtable/internal/common/identifier"
	"gildedtable/internal/dice"
	"gildedtable/internal/models"
	"gildedtable/internal/protocol"
	roomRepo "gildedtable/internal/repositories/room"
)

// service implements the Service interface
type service struct {
	repo        roomRepo.Repository
	dispatcher  Dispatcher
	roller      dice.Roller
	clock       clock.Clock
	ids         identifier.Generator
	gracePeriod time.Duration

	// mu serializes every handler. Each operation runs to completion
	// under it, so room mutations are atomic with respect to each
	// other and to timer callbacks. The dispatcher must not block.
	mu          sync.Mutex
	connections map[string]*connection
}

// connection tracks a live connection's attachment to a room
type connection struct {
	ID            string
	SessionID     string
	Name          string
	IdentityToken string
}

// New creates a new session service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Repository == nil {
		return nil, ErrNilRepository
	}
	if cfg.Dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if cfg.Roller == nil {
		return nil, ErrNilRoller
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.IDGenerator == nil {
		return nil, ErrNilIDGenerator
	}

	gracePeriod := cfg.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}

	return &service{
		repo:        cfg.Repository,
		dispatcher:  cfg.Dispatcher,
		roller:      cfg.Roller,
		clock:       cfg.Clock,
		ids:         cfg.IDGenerator,
		gracePeriod: gracePeriod,
		connections: make(map[string]*connection),
	}, nil
}

// Join attaches a connection to a room. The room is created on first
// sight of its id; the first identity token present becomes GM, and
// the GM token re-attaches on reconnect.
func (s *service) Join(ctx context.Context, input *JoinInput) (*JoinOutput, error) {
	normalized, err := normalizeSessionID(input.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A connection is in at most one room; joining again moves it.
	if existing, ok := s.connections[input.ConnectionID]; ok {
		s.detachLocked(ctx, existing)
	}

	rm, err := s.repo.GetOrCreate(ctx, &roomRepo.GetOrCreateInput{SessionID: normalized})
	if err != nil {
		return nil, err
	}

	if timer := rm.Reactivate(); timer != nil {
		timer.Stop()
	}

	conn := &connection{
		ID:            input.ConnectionID,
		SessionID:     normalized,
		Name:          sanitizeName(input.Name),
		IdentityToken: s.sanitizeToken(input.ClientID),
	}
	s.connections[conn.ID] = conn

	isGM := rm.AddParticipant(&models.Participant{
		ConnectionID:  conn.ID,
		Name:          conn.Name,
		IdentityToken: conn.IdentityToken,
	})

	s.dispatcher.Send(conn.ID, &protocol.Outbound{
		T: protocol.TypeJoined,
		P: roomState(rm, conn.IdentityToken),
	})
	s.dispatch(presenceDeliveries(rm, conn.ID))

	return &JoinOutput{SessionID: normalized, IsGM: isGM}, nil
}

// Refresh resends the caller's current room state to the caller only
func (s *service) Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[input.ConnectionID]
	if !ok {
		return nil, ErrNotInSession
	}

	rm, err := s.roomForLocked(ctx, conn)
	if err != nil {
		return nil, err
	}

	state := roomState(rm, conn.IdentityToken)
	s.dispatcher.Send(conn.ID, &protocol.Outbound{
		T: protocol.TypeStateRefreshed,
		P: state,
	})

	return &RefreshOutput{SessionID: conn.SessionID, IsGM: state.IsGM}, nil
}

// Roll generates a sanitized dice pool, appends it to history, and
// delivers it: hidden rolls go only to the GM's live connection, open
// rolls go to the whole room including the roller.
func (s *service) Roll(ctx context.Context, input *RollInput) (*RollOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[input.ConnectionID]
	if !ok {
		return nil, ErrNotInSession
	}

	rm, err := s.roomForLocked(ctx, conn)
	if err != nil {
		return nil, err
	}

	roll := &models.Roll{
		ID:            s.ids.NewOrderedID(),
		By:            conn.Name,
		SessionID:     conn.SessionID,
		Dice:          s.roller.Roll(input.NumDice, input.NumGilded),
		Hidden:        input.Hidden,
		Timestamp:     s.clock.Now(),
		IdentityToken: conn.IdentityToken,
	}
	rm.AppendRoll(roll)

	message := &protocol.Outbound{T: protocol.TypeRollResult, P: rollView(roll)}

	if !roll.Hidden {
		s.dispatcher.SendToSet(allConnectionIDs(rm), message)
		return &RollOutput{Roll: roll, GMConnected: true}, nil
	}

	gmConn, live := rm.GMConnectionID()
	if !live {
		// The roll stays in history for a reconnecting GM; the
		// roller just gets told nobody saw it.
		s.dispatcher.Send(conn.ID, failure(ErrGameMasterOffline))
		return &RollOutput{Roll: roll, GMConnected: false}, nil
	}

	s.dispatcher.Send(gmConn, message)
	return &RollOutput{Roll: roll, GMConnected: true}, nil
}

// ClearHistory empties the room's roll history. Only the GM may do
// this; everyone in the room hears about it.
func (s *service) ClearHistory(ctx context.Context, input *ClearHistoryInput) (*ClearHistoryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[input.ConnectionID]
	if !ok {
		return nil, ErrNotInSession
	}

	rm, err := s.roomForLocked(ctx, conn)
	if err != nil {
		return nil, err
	}

	if !rm.IsGM(conn.IdentityToken) {
		return nil, ErrNotGameMaster
	}

	rm.ClearHistory()
	s.dispatcher.SendToSet(allConnectionIDs(rm), &protocol.Outbound{
		T: protocol.TypeHistoryCleared,
		P: &protocol.HistoryClearedPayload{By: conn.Name},
	})

	return &ClearHistoryOutput{}, nil
}

// Leave detaches a connection on explicit request
func (s *service) Leave(ctx context.Context, input *LeaveInput) (*LeaveOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[input.ConnectionID]
	if !ok {
		return nil, ErrNotInSession
	}

	s.detachLocked(ctx, conn)
	return &LeaveOutput{SessionID: conn.SessionID}, nil
}

// Disconnect detaches a connection whose transport dropped
func (s *service) Disconnect(ctx context.Context, input *DisconnectInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[input.ConnectionID]
	if !ok {
		return nil
	}

	s.detachLocked(ctx, conn)
	return nil
}

// detachLocked removes the connection from its room, announces the
// presence change, and arms the cleanup timer if the room drained
func (s *service) detachLocked(ctx context.Context, conn *connection) {
	delete(s.connections, conn.ID)

	rm, err := s.repo.Get(ctx, &roomRepo.GetInput{SessionID: conn.SessionID})
	if err != nil {
		return
	}

	if _, removed := rm.RemoveParticipant(conn.ID); !removed {
		return
	}

	s.dispatch(presenceDeliveries(rm, conn.ID))
	s.scheduleCleanupLocked(rm)
}

// scheduleCleanupLocked arms the grace timer for an empty room. Arming
// is idempotent: a draining room keeps its existing timer.
func (s *service) scheduleCleanupLocked(rm *models.Room) {
	if !rm.Empty() || rm.Phase() == models.RoomPhaseDraining {
		return
	}

	sessionID := rm.ID()
	rm.BeginDraining(time.AfterFunc(s.gracePeriod, func() {
		s.expireRoom(sessionID)
	}))
}

// expireRoom runs at grace expiry. Both conditions are re-checked
// under the lock: a room that picked up participants, or still holds
// history, survives.
func (s *service) expireRoom(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	rm, err := s.repo.Get(ctx, &roomRepo.GetInput{SessionID: sessionID})
	if err != nil {
		return
	}

	// A join may have reactivated the room after the timer fired but
	// before this callback took the lock.
	if rm.Phase() != models.RoomPhaseDraining {
		return
	}

	if rm.Empty() && rm.HistoryLen() == 0 {
		if err := s.repo.Delete(ctx, &roomRepo.DeleteInput{SessionID: sessionID}); err == nil {
			log.Printf("session: room %s deleted after grace period", sessionID)
		}
		return
	}

	rm.FinishDraining()
}

// roomForLocked resolves the caller's room, dropping the stale
// connection entry if the room no longer exists
func (s *service) roomForLocked(ctx context.Context, conn *connection) (*models.Room, error) {
	rm, err := s.repo.Get(ctx, &roomRepo.GetInput{SessionID: conn.SessionID})
	if err != nil {
		delete(s.connections, conn.ID)
		return nil, ErrNotInSession
	}
	return rm, nil
}

// dispatch fans computed deliveries out through the transport
func (s *service) dispatch(deliveries []delivery) {
	for _, d := range deliveries {
		s.dispatcher.SendToSet(d.targets, d.message)
	}
}

// failure wraps a soft error for the single caller that triggered it
func failure(err error) *protocol.Outbound {
	return &protocol.Outbound{
		T: protocol.TypeOperationFailed,
		P: &protocol.ErrorPayload{Message: err.Error()},
	}
}

// normalizeSessionID trims and upper-cases a session id, rejecting
// empty input. Room ids are case- and whitespace-insensitive.
func normalizeSessionID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidSessionID
	}
	return strings.ToUpper(trimmed), nil
}

// sanitizeName trims a display name, defaulting and truncating
func sanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultName
	}
	if runes := []rune(name); len(runes) > MaxNameLength {
		return string(runes[:MaxNameLength])
	}
	return name
}

// sanitizeToken truncates a client-supplied identity token, minting a
// fresh one when the client sent none
func (s *service) sanitizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return s.ids.NewID()
	}
	if runes := []rune(token); len(runes) > MaxTokenLength {
		return string(runes[:MaxTokenLength])
	}
	return token
}
