package product

import (
	"context"
	"fmt"

	"gasworld/internal/core/id"
	"gasworld/pkg/logger"
)

// Service provides business operations for products and pumps.
type Service struct {
	products Repository
	pumps    PumpRepository
}

// NewService creates a new product service.
func NewService(products Repository, pumps PumpRepository) *Service {
	return &Service{products: products, pumps: pumps}
}

// CreateProduct registers a fuel product at a station.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	logger.Info(ctx, "product created", "id", p.ID, "station_id", p.StationID)
	return nil
}

// GetProduct retrieves a product.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	return s.products.GetByID(ctx, productID)
}

// ListProductsByStation lists a station's products.
func (s *Service) ListProductsByStation(ctx context.Context, stationID id.ID) ([]*Product, error) {
	return s.products.ListByStation(ctx, stationID)
}

// CreatePump registers a pump drawing from a pit.
func (s *Service) CreatePump(ctx context.Context, p *Pump) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.pumps.Create(ctx, p); err != nil {
		return fmt.Errorf("create pump: %w", err)
	}
	logger.Info(ctx, "pump created", "id", p.ID, "pit_id", p.PitID, "initial_meter", p.InitialMeter)
	return nil
}

// GetPump retrieves a pump.
func (s *Service) GetPump(ctx context.Context, pumpID id.ID) (*Pump, error) {
	return s.pumps.GetByID(ctx, pumpID)
}

// ListPumpsByStation lists a station's pumps.
func (s *Service) ListPumpsByStation(ctx context.Context, stationID id.ID) ([]*Pump, error) {
	return s.pumps.ListByStation(ctx, stationID)
}

// ListPumpsByPit lists pumps drawing from a pit.
func (s *Service) ListPumpsByPit(ctx context.Context, pitID id.ID) ([]*Pump, error) {
	return s.pumps.ListByPit(ctx, pitID)
}

// ListPumpsByProduct lists pumps dispensing a product.
func (s *Service) ListPumpsByProduct(ctx context.Context, productID id.ID) ([]*Pump, error) {
	return s.pumps.ListByProduct(ctx, productID)
}
