// Package sales owns the cash reconciliation record derived from completed
// meter readings and the close flow that finalizes a reading.
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/id"
)

// Sales reconciles the money collected for one pump reading against the
// amount the meter delta says was sold.
type Sales struct {
	ID     id.ID  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`
	// PumpReadingID links the record to the reading it reconciles. A
	// unique constraint on this column makes derivation at-most-once.
	PumpReadingID id.ID `db:"pump_reading_id" json:"pumpReadingId"`
	StationID     id.ID `db:"station_id" json:"stationId"`
	AttendantID   id.ID `db:"attendant_id" json:"attendantId"`
	// ExpectedAmount is the monetary amount derived from the reading at
	// completion time (liters sold times rate).
	ExpectedAmount decimal.Decimal `db:"expected_amount" json:"expectedAmount"`
	Cash           decimal.Decimal `db:"cash" json:"cash"`
	Transfer       decimal.Decimal `db:"transfer" json:"transfer"`
	POS            decimal.Decimal `db:"pos" json:"pos"`
	Expenses       decimal.Decimal `db:"expenses" json:"expenses"`
	// ShortageOrExcess is ExpectedAmount minus everything collected.
	// Positive means money is missing.
	ShortageOrExcess decimal.Decimal `db:"shortage_or_excess" json:"shortageOrExcess"`
	IsActive         bool            `db:"is_active" json:"isActive"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

// Collected sums the four collection fields.
func (s *Sales) Collected() decimal.Decimal {
	return s.Cash.Add(s.Transfer).Add(s.POS).Add(s.Expenses)
}

// Recompute refreshes the shortage projection after a field change.
func (s *Sales) Recompute() {
	s.ShortageOrExcess = s.ExpectedAmount.Sub(s.Collected())
}
