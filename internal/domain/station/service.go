package station

import (
	"context"
	"fmt"
	"time"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/core/tx"
	"gasworld/pkg/logger"
)

// Service provides business operations for stations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new station service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create registers a new station under an owner.
func (s *Service) Create(ctx context.Context, st *Station) error {
	if err := st.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, st); err != nil {
		return fmt.Errorf("create station: %w", err)
	}

	logger.Info(ctx, "station created", "id", st.ID, "owner_id", st.OwnerID)
	return nil
}

// GetByID retrieves a station.
func (s *Service) GetByID(ctx context.Context, stationID id.ID) (*Station, error) {
	return s.repo.GetByID(ctx, stationID)
}

// ListByOwner lists all stations of an owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.ID) ([]*Station, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateParams carries the station fields being changed. Nil fields keep
// their current value.
type UpdateParams struct {
	Name    *string
	Address *string
	City    *string
	State   *string
}

// Update modifies station details.
func (s *Service) Update(ctx context.Context, stationID id.ID, p UpdateParams) (*Station, error) {
	var st *Station
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.repo.GetByID(ctx, stationID)
		if err != nil {
			return err
		}
		if p.Name != nil {
			if *p.Name == "" {
				return apperror.NewValidation("name cannot be empty").WithDetail("field", "name")
			}
			st.Name = *p.Name
		}
		if p.Address != nil {
			st.Address = p.Address
		}
		if p.City != nil {
			st.City = p.City
		}
		if p.State != nil {
			st.State = p.State
		}
		st.UpdatedAt = time.Now()
		return s.repo.Update(ctx, st)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "station updated", "station_id", stationID)
	return st, nil
}

// AssignManager binds a manager to a station. A station has at most one
// manager; reassignment replaces the previous binding.
func (s *Service) AssignManager(ctx context.Context, stationID, managerID id.ID) error {
	if id.IsNil(managerID) {
		return apperror.NewValidation("manager is required").WithDetail("field", "managerId")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, stationID); err != nil {
			return err
		}
		return s.repo.SetManager(ctx, stationID, &managerID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "station manager assigned", "station_id", stationID, "manager_id", managerID)
	return nil
}

// Delete removes a station and, transitively, its pits, pumps and readings.
func (s *Service) Delete(ctx context.Context, stationID id.ID) error {
	if err := s.repo.Delete(ctx, stationID); err != nil {
		return err
	}
	logger.Info(ctx, "station deleted", "station_id", stationID)
	return nil
}
