package room

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go gildedtable/internal/repositories/room Repository

import (
	"context"

	"gildedtable/internal/models"
)

// Repository defines the interface for the room registry. Rooms are
// returned live: callers mutate the same aggregate the registry holds,
// under the session service's serialization.
type Repository interface {
	// GetOrCreate retrieves a room, creating an empty one if absent
	GetOrCreate(ctx context.Context, input *GetOrCreateInput) (*models.Room, error)

	// Get retrieves a room by its normalized session id
	Get(ctx context.Context, input *GetInput) (*models.Room, error)

	// Delete removes a room. Only the cleanup path calls this.
	Delete(ctx context.Context, input *DeleteInput) error
}
