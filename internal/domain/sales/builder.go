package sales

import (
	"context"
	"fmt"
	"time"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/reading"
	"gasworld/pkg/logger"
)

// Builder opens one sales record per completed meter reading. It runs inside
// the reading's transaction; the unique constraint on pump_reading_id backs
// the existence check at the database level.
type Builder struct {
	repo    Repository
	numbers NumberSource
}

// NewBuilder creates the sales projection builder.
func NewBuilder(repo Repository, numbers NumberSource) *Builder {
	return &Builder{repo: repo, numbers: numbers}
}

// Name identifies the builder in errors and logs.
func (b *Builder) Name() string {
	return "sales"
}

// OnReadingCompleted opens the reconciliation record for a completed reading.
func (b *Builder) OnReadingCompleted(ctx context.Context, ev reading.CompletedEvent) error {
	exists, err := b.repo.ExistsByReading(ctx, ev.ReadingID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicateDerived("sales", ev.ReadingID)
	}

	number, err := b.numbers.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sales number: %w", err)
	}

	now := time.Now()
	rec := &Sales{
		ID:             id.New(),
		Number:         number,
		PumpReadingID:  ev.ReadingID,
		StationID:      ev.StationID,
		AttendantID:    ev.AttendantID,
		ExpectedAmount: ev.Amount,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	rec.Recompute()
	if err := b.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("create sales: %w", err)
	}

	logger.Debug(ctx, "sales derived",
		"id", rec.ID,
		"number", rec.Number,
		"reading_id", ev.ReadingID,
		"expected_amount", rec.ExpectedAmount,
	)
	return nil
}
