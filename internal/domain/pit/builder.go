package pit

import (
	"context"

	"gasworld/internal/core/apperror"
	"gasworld/internal/domain/reading"
	"gasworld/pkg/logger"
)

// Builder derives one stock snapshot per completed meter reading. It runs
// inside the reading's transaction; the unique constraint on reading_id backs
// the existence check at the database level.
type Builder struct {
	service *Service
}

// NewBuilder creates the pit reading projection builder.
func NewBuilder(service *Service) *Builder {
	return &Builder{service: service}
}

// Name identifies the builder in errors and logs.
func (b *Builder) Name() string {
	return "pit_reading"
}

// OnReadingCompleted derives the stock snapshot for a completed reading.
func (b *Builder) OnReadingCompleted(ctx context.Context, ev reading.CompletedEvent) error {
	exists, err := b.service.repo.ExistsByReading(ctx, ev.ReadingID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicateDerived("pit reading", ev.ReadingID)
	}

	readingID := ev.ReadingID
	snap, err := b.service.snapshot(ctx, ev.PitID, &readingID, nil, nil)
	if err != nil {
		return err
	}

	logger.Debug(ctx, "pit reading derived",
		"id", snap.ID,
		"pit_id", snap.PitID,
		"reading_id", ev.ReadingID,
		"closing_stock", snap.ClosingStock,
	)
	return nil
}
