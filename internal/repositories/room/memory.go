package room

import (
	"context"
	"errors"
	"sync"

	"gildedtable/internal/models"
)

// ErrRoomNotFound is returned when a session id has no room
var ErrRoomNotFound = errors.New("room not found")

// Config holds configuration for the in-memory repository
type Config struct {
	// HistoryLimit caps each room's roll history. Zero means the
	// model default.
	HistoryLimit int
}

// Memory is an in-memory room registry held for the life of the
// process
type Memory struct {
	mu           sync.RWMutex
	rooms        map[string]*models.Room
	historyLimit int
}

// NewMemory creates a new in-memory repository
func NewMemory(cfg *Config) (*Memory, error) {
	historyLimit := 0
	if cfg != nil {
		historyLimit = cfg.HistoryLimit
	}

	return &Memory{
		rooms:        make(map[string]*models.Room),
		historyLimit: historyLimit,
	}, nil
}

// GetOrCreate retrieves the room for a session id, creating an empty
// one on first sight
func (m *Memory) GetOrCreate(_ context.Context, input *GetOrCreateInput) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rooms[input.SessionID]; ok {
		return existing, nil
	}

	created := models.NewRoom(input.SessionID, m.historyLimit)
	m.rooms[input.SessionID] = created
	return created, nil
}

// Get retrieves a room by session id
func (m *Memory) Get(_ context.Context, input *GetInput) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.rooms[input.SessionID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return existing, nil
}

// Delete removes a room from the registry
func (m *Memory) Delete(_ context.Context, input *DeleteInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[input.SessionID]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, input.SessionID)
	return nil
}

// Len returns the number of registered rooms
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
