package pit

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
	"gasworld/pkg/logger"
)

// Service provides pit inventory operations.
type Service struct {
	repo      Repository
	guard     *authz.Guard
	txManager tx.Manager
	sink      audit.Sink
}

// NewService creates a pit service.
func NewService(repo Repository, guard *authz.Guard, txManager tx.Manager, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{repo: repo, guard: guard, txManager: txManager, sink: sink}
}

// Create registers a new pit.
func (s *Service) Create(ctx context.Context, p *Pit) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create pit: %w", err)
	}
	logger.Info(ctx, "pit created", "id", p.ID, "station_id", p.StationID, "current_volume", p.CurrentVolume)
	return nil
}

// GetByID retrieves a pit.
func (s *Service) GetByID(ctx context.Context, pitID id.ID) (*Pit, error) {
	return s.repo.GetByID(ctx, pitID)
}

// ListByStation lists a station's pits.
func (s *Service) ListByStation(ctx context.Context, stationID id.ID) ([]*Pit, error) {
	return s.repo.ListByStation(ctx, stationID)
}

// ListReadings lists a pit's stock snapshots, newest first.
func (s *Service) ListReadings(ctx context.Context, pitID id.ID) ([]*PitReading, error) {
	return s.repo.ListReadingsByPit(ctx, pitID)
}

// Delete removes a pit and, through cascades, its pumps and snapshots.
func (s *Service) Delete(ctx context.Context, pitID id.ID) error {
	if err := s.repo.Delete(ctx, pitID); err != nil {
		return err
	}
	logger.Info(ctx, "pit deleted", "id", pitID)
	return nil
}

// AdjustVolume applies a signed delta to the pit's running stock. This is the
// only operation that mutates CurrentVolume.
func (s *Service) AdjustVolume(ctx context.Context, pitID id.ID, delta decimal.Decimal, actorID id.ID) (*Pit, error) {
	if err := s.requireManager(ctx, actorID, pitID); err != nil {
		return nil, err
	}

	var adjusted *Pit
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, pitID)
		if err != nil {
			return err
		}
		next := p.CurrentVolume.Add(delta)
		if next.IsNegative() {
			return apperror.NewValidation("volume adjustment would make stock negative").
				WithDetail("current_volume", p.CurrentVolume.String()).
				WithDetail("delta", delta.String())
		}
		if err := s.repo.UpdateVolume(ctx, pitID, next); err != nil {
			return fmt.Errorf("update pit volume: %w", err)
		}
		p.CurrentVolume = next
		p.UpdatedAt = time.Now()
		adjusted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.NewEntry(audit.ActionVolumeAdjusted, "pit", pitID, &actorID, map[string]string{
		"delta":      delta.String(),
		"new_volume": adjusted.CurrentVolume.String(),
	}))
	logger.Info(ctx, "pit volume adjusted", "id", pitID, "delta", delta, "current_volume", adjusted.CurrentVolume)
	return adjusted, nil
}

// RecordParams describes a manual stock snapshot carrying a physical dip
// measurement.
type RecordParams struct {
	PitID id.ID
	// OpeningStock overrides the pit's current volume as the snapshot
	// baseline when set.
	OpeningStock *decimal.Decimal
	// ActualClosingStock is the measured stock. A value above the opening
	// stock is attributed to a fuel delivery.
	ActualClosingStock *decimal.Decimal
	ActorID            id.ID
}

// Record takes a manual stock snapshot of the pit.
func (s *Service) Record(ctx context.Context, p RecordParams) (*PitReading, error) {
	if err := s.requireManager(ctx, p.ActorID, p.PitID); err != nil {
		return nil, err
	}

	var snap *PitReading
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		snap, txErr = s.snapshot(ctx, p.PitID, nil, p.OpeningStock, p.ActualClosingStock)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pit reading recorded",
		"id", snap.ID,
		"pit_id", snap.PitID,
		"closing_stock", snap.ClosingStock,
		"supply", snap.Supply,
	)
	return snap, nil
}

// snapshot derives and stores one stock snapshot. Must run inside a
// transaction; locks the pit row to serialize snapshots across pumps that
// share the pit.
func (s *Service) snapshot(ctx context.Context, pitID id.ID, readingID *id.ID, openingOverride, actual *decimal.Decimal) (*PitReading, error) {
	p, err := s.repo.GetForUpdate(ctx, pitID)
	if err != nil {
		return nil, err
	}

	opening := p.CurrentVolume
	if openingOverride != nil {
		opening = *openingOverride
	}

	// Closing stock is re-derived from the full reading history each time
	// rather than kept incrementally. The pit row lock bounds the cost to
	// one aggregate query per snapshot.
	sold, err := s.repo.SumLitersSoldByPit(ctx, pitID)
	if err != nil {
		return nil, fmt.Errorf("sum liters sold: %w", err)
	}
	closing := opening.Sub(sold)

	supply := decimal.Zero
	if actual != nil && actual.GreaterThan(opening) {
		supply = actual.Sub(opening)
		closing = *actual
	}

	now := time.Now()
	snap := &PitReading{
		ID:                 id.New(),
		PitID:              pitID,
		ReadingID:          readingID,
		OpeningStock:       opening,
		ClosingStock:       closing,
		ActualClosingStock: actual,
		Supply:             supply,
		Timestamp:          now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateReading(ctx, snap); err != nil {
		return nil, fmt.Errorf("create pit reading: %w", err)
	}
	return snap, nil
}

// requireManager checks the actor manages the pit's station.
func (s *Service) requireManager(ctx context.Context, actorID, pitID id.ID) error {
	p, err := s.repo.GetByID(ctx, pitID)
	if err != nil {
		return err
	}
	stationID, err := s.guard.StationOf(ctx, actorID, authz.RoleManager)
	if err != nil {
		return err
	}
	if stationID == nil || *stationID != p.StationID {
		return apperror.NewForbidden("only the station manager can record pit stock").
			WithDetail("pit_id", pitID.String())
	}
	return nil
}
