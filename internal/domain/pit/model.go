// Package pit owns the fuel inventory ledger: storage pits, their running
// volume, and the stock snapshots derived from completed meter readings.
package pit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
)

// Pit is a physical fuel storage tank tied to a product and station.
type Pit struct {
	ID        id.ID           `db:"id" json:"id"`
	StationID id.ID           `db:"station_id" json:"stationId"`
	ProductID id.ID           `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	// CurrentVolume is the running stock. It changes only through explicit
	// volume adjustments, never as a side effect of the reading pipeline.
	CurrentVolume decimal.Decimal `db:"current_volume" json:"currentVolume"`
	// MaxVolume is the capacity ceiling. It is informational and is not
	// enforced against CurrentVolume.
	MaxVolume decimal.Decimal `db:"max_volume" json:"maxVolume"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewPit creates a pit with the given starting stock.
func NewPit(stationID, productID id.ID, name string, currentVolume, maxVolume decimal.Decimal) *Pit {
	now := time.Now()
	return &Pit{
		ID:            id.New(),
		StationID:     stationID,
		ProductID:     productID,
		Name:          name,
		CurrentVolume: currentVolume,
		MaxVolume:     maxVolume,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks pit fields.
func (p *Pit) Validate(_ context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("pit name is required")
	}
	if id.IsNil(p.StationID) {
		return apperror.NewValidation("pit station is required")
	}
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("pit product is required")
	}
	if p.CurrentVolume.IsNegative() {
		return apperror.NewValidation("current volume cannot be negative")
	}
	if p.MaxVolume.IsNegative() {
		return apperror.NewValidation("max volume cannot be negative")
	}
	return nil
}

// PitReading is an inventory snapshot for a pit.
//
// Snapshots come from two sources: one is derived automatically for every
// completed meter reading (ReadingID set, at most one per reading), and one
// is recorded manually by a manager carrying a physical dip measurement
// (ReadingID nil, ActualClosingStock set).
type PitReading struct {
	ID    id.ID `db:"id" json:"id"`
	PitID id.ID `db:"pit_id" json:"pitId"`
	// ReadingID links a derived snapshot to the meter reading that
	// produced it. A unique constraint on this column makes derivation
	// at-most-once per reading.
	ReadingID    *id.ID          `db:"reading_id" json:"readingId,omitempty"`
	OpeningStock decimal.Decimal `db:"opening_stock" json:"openingStock"`
	// ClosingStock is opening stock minus the summed liters sold across
	// the pit's full reading history, or the measured value when a
	// larger actual stock overrides it.
	ClosingStock       decimal.Decimal  `db:"closing_stock" json:"closingStock"`
	ActualClosingStock *decimal.Decimal `db:"actual_closing_stock" json:"actualClosingStock,omitempty"`
	// Supply is the attributed delivery volume when the measured stock
	// exceeds the opening stock.
	Supply    decimal.Decimal `db:"supply" json:"supply"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// ExcessOrShortage is the measured-versus-derived stock variance. Nil when
// no physical measurement was taken, and zero when the measurement exceeded
// the opening stock (the surplus is attributed to Supply instead).
func (r *PitReading) ExcessOrShortage() *decimal.Decimal {
	if r.ActualClosingStock == nil {
		return nil
	}
	d := r.ActualClosingStock.Sub(r.ClosingStock)
	return &d
}
