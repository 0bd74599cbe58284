package product

import (
	"context"

	"gasworld/internal/core/id"
)

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	ListByStation(ctx context.Context, stationID id.ID) ([]*Product, error)
	Delete(ctx context.Context, productID id.ID) error
}

// PumpRepository defines persistence operations for pumps.
type PumpRepository interface {
	Create(ctx context.Context, p *Pump) error
	GetByID(ctx context.Context, pumpID id.ID) (*Pump, error)

	// GetForUpdate retrieves a pump with a row lock. The reading recorder
	// locks the pump to serialize ledger writes per pump.
	GetForUpdate(ctx context.Context, pumpID id.ID) (*Pump, error)

	ListByStation(ctx context.Context, stationID id.ID) ([]*Pump, error)
	ListByPit(ctx context.Context, pitID id.ID) ([]*Pump, error)
	ListByProduct(ctx context.Context, productID id.ID) ([]*Pump, error)
	Delete(ctx context.Context, pumpID id.ID) error
}
