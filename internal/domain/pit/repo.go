package pit

import (
	"context"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/id"
)

// Repository provides access to pits and their readings.
type Repository interface {
	Create(ctx context.Context, pit *Pit) error
	GetByID(ctx context.Context, pitID id.ID) (*Pit, error)
	// GetForUpdate retrieves a pit with a row lock. Volume adjustments and
	// snapshot derivation both lock the pit row to serialize against each
	// other.
	GetForUpdate(ctx context.Context, pitID id.ID) (*Pit, error)
	ListByStation(ctx context.Context, stationID id.ID) ([]*Pit, error)
	UpdateVolume(ctx context.Context, pitID id.ID, volume decimal.Decimal) error
	Delete(ctx context.Context, pitID id.ID) error

	CreateReading(ctx context.Context, reading *PitReading) error
	// ExistsByReading reports whether a snapshot already references the
	// given meter reading.
	ExistsByReading(ctx context.Context, readingID id.ID) (bool, error)
	ListReadingsByPit(ctx context.Context, pitID id.ID) ([]*PitReading, error)
	// SumLitersSoldByPit sums liters sold across all closed meter readings
	// on pumps drawing from the pit.
	SumLitersSoldByPit(ctx context.Context, pitID id.ID) (decimal.Decimal, error)
}
