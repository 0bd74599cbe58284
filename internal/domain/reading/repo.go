package reading

import (
	"context"

	"gasworld/internal/core/id"
)

// Repository defines persistence operations for pump readings.
type Repository interface {
	Create(ctx context.Context, r *PumpReading) error
	Update(ctx context.Context, r *PumpReading) error
	GetByID(ctx context.Context, readingID id.ID) (*PumpReading, error)

	// GetForUpdate retrieves a reading with a row lock.
	GetForUpdate(ctx context.Context, readingID id.ID) (*PumpReading, error)

	// GetLastByPump returns the most recent reading for a pump by timestamp,
	// or nil if the pump has no readings yet. Callers that derive the next
	// opening meter from the result must hold the pump row lock.
	GetLastByPump(ctx context.Context, pumpID id.ID) (*PumpReading, error)

	// SetStatus transitions a reading's status.
	SetStatus(ctx context.Context, readingID id.ID, status Status) error

	ListByPump(ctx context.Context, pumpID id.ID) ([]*PumpReading, error)
	ListByStation(ctx context.Context, stationID id.ID) ([]*PumpReading, error)
	ListByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]*PumpReading, error)

	// ListIDsByAttendant returns the attendant's most recent reading IDs,
	// newest first. Feeds the authorization cache's recent-readings list.
	ListIDsByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error)
}
