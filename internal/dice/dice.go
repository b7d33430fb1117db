package dice

import (
	"math/rand"
	"time"

	"gildedtable/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_roller.go gildedtable/internal/dice Roller

const (
	// Sides is the number of faces on every die
	Sides = 6

	// MinDice is the smallest pool a roll may request
	MinDice = 1

	// MaxDice is the largest pool a roll may request
	MaxDice = 6
)

// Roller produces dice pools from a bounded request
type Roller interface {
	// Roll returns count dice, the first gilded of them marked as
	// gilded. Inputs are clamped, never rejected.
	Roll(count, gilded int) []models.Die
}

// RandomRoller implements Roller with a seeded random source
type RandomRoller struct {
	random *rand.Rand
}

// Config for the dice roller
type Config struct {
	// Optional seed for testing
	Seed int64
}

// New creates a new dice roller
func New(cfg *Config) *RandomRoller {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	source := rand.NewSource(seed)

	return &RandomRoller{
		random: rand.New(source),
	}
}

// Roll generates a pool of count dice uniform over 1..Sides. The
// request is sanitized: count is clamped to [MinDice, MaxDice] and
// gilded to [0, count].
func (r *RandomRoller) Roll(count, gilded int) []models.Die {
	if count < MinDice {
		count = MinDice
	}
	if count > MaxDice {
		count = MaxDice
	}
	if gilded < 0 {
		gilded = 0
	}
	if gilded > count {
		gilded = count
	}

	pool := make([]models.Die, count)
	for i := range pool {
		pool[i] = models.Die{
			Value:  r.random.Intn(Sides) + 1,
			Gilded: i < gilded,
		}
	}
	return pool
}
