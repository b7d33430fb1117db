package identifier

import "github.com/google/uuid"

//go:generate mockgen -package=mocks -destination=mocks/mock_identifier.go gildedtable/internal/common/identifier Generator

// Generator produces unique identifiers for connections and rolls
type Generator interface {
	// NewID returns a random identifier
	NewID() string

	// NewOrderedID returns an identifier that sorts by creation time
	NewOrderedID() string
}

// DefaultGenerator implements the Generator interface using the uuid package
type DefaultGenerator struct{}

// New creates a new DefaultGenerator
func New() *DefaultGenerator {
	return &DefaultGenerator{}
}

// NewID returns a random UUIDv4 string
func (g *DefaultGenerator) NewID() string {
	return uuid.New().String()
}

// NewOrderedID returns a UUIDv7 string, falling back to UUIDv4 if the
// system clock is unusable
func (g *DefaultGenerator) NewOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
