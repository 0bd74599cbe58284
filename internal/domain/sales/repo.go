package sales

import (
	"context"

	"gasworld/internal/core/id"
)

// Repository provides access to sales records.
type Repository interface {
	Create(ctx context.Context, s *Sales) error
	Update(ctx context.Context, s *Sales) error
	GetByID(ctx context.Context, salesID id.ID) (*Sales, error)
	// GetForUpdate retrieves a sales record with a row lock.
	GetForUpdate(ctx context.Context, salesID id.ID) (*Sales, error)
	GetByReading(ctx context.Context, readingID id.ID) (*Sales, error)
	// ExistsByReading reports whether a sales record already references
	// the given reading.
	ExistsByReading(ctx context.Context, readingID id.ID) (bool, error)
	ListByStation(ctx context.Context, stationID id.ID) ([]*Sales, error)
	ListByAttendant(ctx context.Context, attendantID id.ID) ([]*Sales, error)
}
