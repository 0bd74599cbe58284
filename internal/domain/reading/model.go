// Package reading provides the meter reading recorder.
//
// Pump readings form a gapless ledger per pump: each reading opens at the
// previous reading's closing meter (or the pump's initial meter) and stays
// open until the assigned attendant records a closing value. Recording the
// closing value completes the reading and derives exactly one sales record
// and one pit reading in the same transaction.
package reading

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
)

// Status of a pump reading.
type Status string

const (
	// StatusPending: reading opened, closing meter not yet recorded.
	StatusPending Status = "PENDING"
	// StatusAccepted: closing meter recorded, reconciliation still open.
	StatusAccepted Status = "ACCEPTED"
	// StatusCompleted: terminal; set when the sales record is closed.
	StatusCompleted Status = "COMPLETED"
)

// PumpReading is one dispensing event on a pump.
type PumpReading struct {
	ID           id.ID            `db:"id" json:"id"`
	PumpID       id.ID            `db:"pump_id" json:"pumpId"`
	AttendantID  id.ID            `db:"attendant_id" json:"attendantId"`
	OpeningMeter decimal.Decimal  `db:"opening_meter" json:"openingMeter"`
	ClosingMeter *decimal.Decimal `db:"closing_meter" json:"closingMeter,omitempty"`
	Rate         decimal.Decimal  `db:"rate" json:"rate"`
	Status       Status           `db:"status" json:"status"`
	Timestamp    time.Time        `db:"timestamp" json:"timestamp"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// IsOpen reports whether the reading still awaits its closing meter.
// An open reading blocks any new reading on the same pump.
func (r *PumpReading) IsOpen() bool {
	return r.ClosingMeter == nil
}

// LitersSold is the meter delta, zero while the reading is open.
func (r *PumpReading) LitersSold() decimal.Decimal {
	if r.ClosingMeter == nil {
		return decimal.Zero
	}
	return r.ClosingMeter.Sub(r.OpeningMeter)
}

// Amount is the expected money for the dispensed fuel.
func (r *PumpReading) Amount() decimal.Decimal {
	return r.LitersSold().Mul(r.Rate)
}

// Validate checks required references.
func (r *PumpReading) Validate(ctx context.Context) error {
	if id.IsNil(r.PumpID) {
		return apperror.NewValidation("pump is required").WithDetail("field", "pumpId")
	}
	if id.IsNil(r.AttendantID) {
		return apperror.NewValidation("attendant is required").WithDetail("field", "attendantId")
	}
	if r.Rate.IsNegative() {
		return apperror.NewValidation("rate cannot be negative").WithDetail("field", "rate")
	}
	return nil
}
