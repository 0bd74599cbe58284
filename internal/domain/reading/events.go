package reading

import (
	"context"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/id"
)

// CompletedEvent is published when a reading receives its closing meter.
// It carries plain data so that projection builders do not reach back into
// the recorder's repositories.
type CompletedEvent struct {
	ReadingID   id.ID
	PumpID      id.ID
	PitID       id.ID
	StationID   id.ID
	AttendantID id.ID
	LitersSold  decimal.Decimal
	Amount      decimal.Decimal
	Rate        decimal.Decimal
}

// ProjectionBuilder consumes CompletedEvent synchronously, inside the same
// transaction as the closing-meter write. Each builder enforces its own
// at-most-once constraint on the triggering reading; a failure from any
// builder rolls back the reading itself.
type ProjectionBuilder interface {
	// Name identifies the builder in logs.
	Name() string

	// OnReadingCompleted derives the builder's record for the reading.
	OnReadingCompleted(ctx context.Context, ev CompletedEvent) error
}
