package station

import (
	"context"

	"gasworld/internal/core/id"
)

// Repository defines persistence operations for stations.
type Repository interface {
	Create(ctx context.Context, s *Station) error
	Update(ctx context.Context, s *Station) error
	GetByID(ctx context.Context, stationID id.ID) (*Station, error)
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*Station, error)

	// SetManager binds or clears the station's manager (one-to-one).
	SetManager(ctx context.Context, stationID id.ID, managerID *id.ID) error

	// Delete removes the station; dependents cascade in the database.
	Delete(ctx context.Context, stationID id.ID) error
}
