package sales

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
	"gasworld/internal/domain/reading"
	"gasworld/pkg/logger"
)

// Service provides reconciliation operations on sales records.
type Service struct {
	repo      Repository
	readings  reading.Repository
	guard     *authz.Guard
	txManager tx.Manager
	sink      audit.Sink
}

// NewService creates a sales service.
func NewService(repo Repository, readings reading.Repository, guard *authz.Guard, txManager tx.Manager, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{
		repo:      repo,
		readings:  readings,
		guard:     guard,
		txManager: txManager,
		sink:      sink,
	}
}

// GetByID retrieves a sales record.
func (s *Service) GetByID(ctx context.Context, salesID id.ID) (*Sales, error) {
	return s.repo.GetByID(ctx, salesID)
}

// GetByReading retrieves the sales record reconciling a reading.
func (s *Service) GetByReading(ctx context.Context, readingID id.ID) (*Sales, error) {
	return s.repo.GetByReading(ctx, readingID)
}

// ListByStation lists a station's sales records.
func (s *Service) ListByStation(ctx context.Context, stationID id.ID) ([]*Sales, error) {
	return s.repo.ListByStation(ctx, stationID)
}

// ListByAttendant lists an attendant's sales records.
func (s *Service) ListByAttendant(ctx context.Context, attendantID id.ID) ([]*Sales, error) {
	return s.repo.ListByAttendant(ctx, attendantID)
}

// UpdateParams carries the collection fields being set. Nil fields keep
// their current value.
type UpdateParams struct {
	Cash     *decimal.Decimal
	Transfer *decimal.Decimal
	POS      *decimal.Decimal
	Expenses *decimal.Decimal
}

// Update sets collection fields and recomputes the shortage projection.
// Allowed only while the record is active, and only to the record's
// attendant or the manager of its station.
func (s *Service) Update(ctx context.Context, salesID id.ID, p UpdateParams, actorID id.ID) (*Sales, error) {
	rec, err := s.repo.GetByID(ctx, salesID)
	if err != nil {
		return nil, err
	}
	if err := s.mayReconcile(ctx, rec, actorID); err != nil {
		return nil, err
	}

	var updated *Sales
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetForUpdate(ctx, salesID)
		if err != nil {
			return err
		}
		if !rec.IsActive {
			return apperror.NewAlreadyClosed(rec.ID.String())
		}
		if p.Cash != nil {
			rec.Cash = *p.Cash
		}
		if p.Transfer != nil {
			rec.Transfer = *p.Transfer
		}
		if p.POS != nil {
			rec.POS = *p.POS
		}
		if p.Expenses != nil {
			rec.Expenses = *p.Expenses
		}
		if rec.Collected().IsNegative() {
			return apperror.NewValidation("collected amounts cannot be negative")
		}
		rec.Recompute()
		rec.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("update sales: %w", err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.NewEntry(audit.ActionSalesUpdated, "sales", updated.ID, &actorID, updated))
	logger.Info(ctx, "sales updated",
		"id", updated.ID,
		"number", updated.Number,
		"shortage_or_excess", updated.ShortageOrExcess,
	)
	return updated, nil
}

// mayReconcile grants the record's attendant and the record's station
// manager; every other identity is Forbidden regardless of its own station.
func (s *Service) mayReconcile(ctx context.Context, rec *Sales, actorID id.ID) error {
	if actorID == rec.AttendantID {
		return nil
	}
	stationID, err := s.guard.StationOf(ctx, actorID, authz.RoleManager)
	if err != nil {
		return err
	}
	if stationID != nil && *stationID == rec.StationID {
		return nil
	}
	return apperror.NewForbidden("only the record's attendant or station manager can reconcile").
		WithDetail("sales_id", rec.ID.String())
}

// Close finalizes a sales record. Only the station's manager may close; the
// linked reading transitions to COMPLETED in the same transaction.
func (s *Service) Close(ctx context.Context, salesID, actorID id.ID) (*Sales, error) {
	rec, err := s.repo.GetByID(ctx, salesID)
	if err != nil {
		return nil, err
	}

	stationID, err := s.guard.StationOf(ctx, actorID, authz.RoleManager)
	if err != nil {
		return nil, err
	}
	if stationID == nil || *stationID != rec.StationID {
		return nil, apperror.NewForbidden("only the station manager can close a sales record").
			WithDetail("sales_id", salesID.String())
	}

	var closed *Sales
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetForUpdate(ctx, salesID)
		if err != nil {
			return err
		}
		if !rec.IsActive {
			return apperror.NewAlreadyClosed(rec.ID.String())
		}
		rec.IsActive = false
		rec.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("close sales: %w", err)
		}
		if err := s.readings.SetStatus(ctx, rec.PumpReadingID, reading.StatusCompleted); err != nil {
			return fmt.Errorf("complete reading: %w", err)
		}
		closed = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.NewEntry(audit.ActionSalesClosed, "sales", closed.ID, &actorID, closed))
	logger.Info(ctx, "sales closed",
		"id", closed.ID,
		"number", closed.Number,
		"reading_id", closed.PumpReadingID,
	)
	return closed, nil
}
