package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/core/tx"
	"gasworld/internal/domain/audit"
	"gasworld/internal/domain/authz"
	"gasworld/internal/domain/product"
	"gasworld/pkg/logger"
)

// Recorder provides the meter reading operations.
//
// Every ledger write runs inside one transaction that first locks the pump
// row. The lock serializes concurrent readings on the same pump, which makes
// the "opening meter inherits the previous closing meter" derivation and the
// one-open-reading-per-pump guard race-free.
type Recorder struct {
	readings  Repository
	pumps     product.PumpRepository
	guard     *authz.Guard
	txManager tx.Manager
	builders  []ProjectionBuilder
	sink      audit.Sink
}

// NewRecorder creates a reading recorder.
func NewRecorder(
	readings Repository,
	pumps product.PumpRepository,
	guard *authz.Guard,
	txManager tx.Manager,
	sink audit.Sink,
) *Recorder {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Recorder{
		readings:  readings,
		pumps:     pumps,
		guard:     guard,
		txManager: txManager,
		sink:      sink,
	}
}

// RegisterBuilder adds a projection builder consuming completion events.
func (r *Recorder) RegisterBuilder(b ProjectionBuilder) {
	r.builders = append(r.builders, b)
}

// OpenParams describes a reading being opened by a manager.
type OpenParams struct {
	PumpID      id.ID
	AttendantID id.ID
	// Rate is optional; defaults to the previous reading's rate,
	// or zero when the pump has no history.
	Rate *decimal.Decimal
	// ActorID is the manager opening the reading.
	ActorID id.ID
}

// Open starts a new PENDING reading on a pump.
func (r *Recorder) Open(ctx context.Context, p OpenParams) (*PumpReading, error) {
	oversees, err := r.guard.ManagerOversees(ctx, p.ActorID, p.AttendantID)
	if err != nil {
		return nil, err
	}
	if !oversees {
		return nil, apperror.NewForbidden("attendant is not overseen by this manager").
			WithDetail("attendant_id", p.AttendantID.String())
	}

	var created *PumpReading
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		created, txErr = r.open(ctx, p.PumpID, p.AttendantID, p.Rate)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	// Cache writes happen after commit; the guard falls back to the store
	// on miss, so a lost cache write costs a query, not correctness.
	r.guard.RememberReading(ctx, p.AttendantID, created.ID)

	r.sink.Record(ctx, audit.NewEntry(audit.ActionReadingOpened, "pump_reading", created.ID, &p.ActorID, created))
	logger.Info(ctx, "pump reading opened",
		"id", created.ID,
		"pump_id", created.PumpID,
		"opening_meter", created.OpeningMeter,
		"rate", created.Rate,
	)
	return created, nil
}

// RecordClosing records the closing meter on an open reading and derives the
// sales and pit reading records within the same transaction.
func (r *Recorder) RecordClosing(ctx context.Context, readingID, actorID id.ID, closing decimal.Decimal) (*PumpReading, error) {
	assigned, err := r.guard.MayRecordClosing(ctx, actorID, readingID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, apperror.NewForbidden("only the assigned attendant can input the closing meter").
			WithDetail("reading_id", readingID.String())
	}

	var closed *PumpReading
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reading, txErr := r.readings.GetForUpdate(ctx, readingID)
		if txErr != nil {
			return txErr
		}
		closed, txErr = r.close(ctx, reading, closing)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	r.sink.Record(ctx, audit.NewEntry(audit.ActionReadingClosed, "pump_reading", closed.ID, &actorID, closed))
	logger.Info(ctx, "pump reading closed",
		"id", closed.ID,
		"liters_sold", closed.LitersSold(),
		"amount", closed.Amount(),
	)
	return closed, nil
}

// RecordParams describes the one-shot record operation: open a reading with a
// derived opening meter and close it with the supplied value in one call.
type RecordParams struct {
	PumpID       id.ID
	AttendantID  id.ID
	ClosingMeter decimal.Decimal
	Rate         *decimal.Decimal
	ActorID      id.ID
}

// Record opens and closes a reading in a single transaction.
func (r *Recorder) Record(ctx context.Context, p RecordParams) (*PumpReading, error) {
	oversees, err := r.guard.ManagerOversees(ctx, p.ActorID, p.AttendantID)
	if err != nil {
		return nil, err
	}
	if !oversees {
		return nil, apperror.NewForbidden("attendant is not overseen by this manager").
			WithDetail("attendant_id", p.AttendantID.String())
	}

	var recorded *PumpReading
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		opened, txErr := r.open(ctx, p.PumpID, p.AttendantID, p.Rate)
		if txErr != nil {
			return txErr
		}
		recorded, txErr = r.close(ctx, opened, p.ClosingMeter)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	r.sink.Record(ctx, audit.NewEntry(audit.ActionReadingClosed, "pump_reading", recorded.ID, &p.ActorID, recorded))
	logger.Info(ctx, "pump reading recorded",
		"id", recorded.ID,
		"liters_sold", recorded.LitersSold(),
		"amount", recorded.Amount(),
	)
	return recorded, nil
}

// open inserts a new reading. Must run inside a transaction.
func (r *Recorder) open(ctx context.Context, pumpID, attendantID id.ID, rate *decimal.Decimal) (*PumpReading, error) {
	// The pump row lock is the serialization point for the whole ledger.
	pump, err := r.pumps.GetForUpdate(ctx, pumpID)
	if err != nil {
		return nil, err
	}

	last, err := r.readings.GetLastByPump(ctx, pumpID)
	if err != nil {
		return nil, err
	}
	if last != nil && last.IsOpen() {
		return nil, apperror.NewConflictingActivity(pumpID.String())
	}

	opening := pump.InitialMeter
	effectiveRate := decimal.Zero
	if last != nil {
		opening = *last.ClosingMeter
		effectiveRate = last.Rate
	}
	if rate != nil {
		effectiveRate = *rate
	}

	now := time.Now()
	reading := &PumpReading{
		ID:           id.New(),
		PumpID:       pumpID,
		AttendantID:  attendantID,
		OpeningMeter: opening,
		Rate:         effectiveRate,
		Status:       StatusPending,
		Timestamp:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := reading.Validate(ctx); err != nil {
		return nil, err
	}
	if err := r.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("create reading: %w", err)
	}
	return reading, nil
}

// close records the closing meter and publishes the completion event.
// Must run inside a transaction.
func (r *Recorder) close(ctx context.Context, reading *PumpReading, closing decimal.Decimal) (*PumpReading, error) {
	if !reading.IsOpen() {
		return nil, apperror.NewConflict("closing meter already recorded").
			WithDetail("reading_id", reading.ID.String())
	}
	if closing.LessThan(reading.OpeningMeter) {
		return nil, apperror.NewValidation("closing meter cannot be less than opening meter").
			WithDetail("opening_meter", reading.OpeningMeter.String()).
			WithDetail("closing_meter", closing.String())
	}

	reading.ClosingMeter = &closing
	reading.Status = StatusAccepted
	reading.UpdatedAt = time.Now()
	if err := r.readings.Update(ctx, reading); err != nil {
		return nil, fmt.Errorf("update reading: %w", err)
	}

	pump, err := r.pumps.GetByID(ctx, reading.PumpID)
	if err != nil {
		return nil, err
	}

	ev := CompletedEvent{
		ReadingID:   reading.ID,
		PumpID:      pump.ID,
		PitID:       pump.PitID,
		StationID:   pump.StationID,
		AttendantID: reading.AttendantID,
		LitersSold:  reading.LitersSold(),
		Amount:      reading.Amount(),
		Rate:        reading.Rate,
	}
	for _, b := range r.builders {
		if err := b.OnReadingCompleted(ctx, ev); err != nil {
			return nil, fmt.Errorf("projection %s: %w", b.Name(), err)
		}
	}
	return reading, nil
}

// GetByID retrieves a reading.
func (r *Recorder) GetByID(ctx context.Context, readingID id.ID) (*PumpReading, error) {
	return r.readings.GetByID(ctx, readingID)
}

// ListByPump lists a pump's readings, oldest first.
func (r *Recorder) ListByPump(ctx context.Context, pumpID id.ID) ([]*PumpReading, error) {
	return r.readings.ListByPump(ctx, pumpID)
}

// ListByStation lists readings across a station's pumps.
func (r *Recorder) ListByStation(ctx context.Context, stationID id.ID) ([]*PumpReading, error) {
	return r.readings.ListByStation(ctx, stationID)
}

// ListByAttendant lists an attendant's readings, newest first.
func (r *Recorder) ListByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]*PumpReading, error) {
	return r.readings.ListByAttendant(ctx, attendantID, limit)
}
