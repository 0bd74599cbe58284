// Package product provides the Product and Pump catalogs.
// A pump dispenses one product and draws from one pit; its meter readings
// form the gapless ledger the derivation pipeline is built on.
package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
)

// Product represents a fuel product sold at a station.
type Product struct {
	ID          id.ID     `db:"id" json:"id"`
	StationID   id.ID     `db:"station_id" json:"stationId"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product for a station.
func NewProduct(stationID id.ID, name string) *Product {
	now := time.Now()
	return &Product{
		ID:        id.New(),
		StationID: stationID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if id.IsNil(p.StationID) {
		return apperror.NewValidation("station is required").WithDetail("field", "stationId")
	}
	return nil
}

// Pump represents a dispensing unit tied to a pit and product.
type Pump struct {
	ID           id.ID           `db:"id" json:"id"`
	StationID    id.ID           `db:"station_id" json:"stationId"`
	ProductID    id.ID           `db:"product_id" json:"productId"`
	PitID        id.ID           `db:"pit_id" json:"pitId"`
	Name         string          `db:"name" json:"name"`
	InitialMeter decimal.Decimal `db:"initial_meter" json:"initialMeter"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewPump creates a pump drawing from the given pit.
func NewPump(stationID, productID, pitID id.ID, name string, initialMeter decimal.Decimal) *Pump {
	now := time.Now()
	return &Pump{
		ID:           id.New(),
		StationID:    stationID,
		ProductID:    productID,
		PitID:        pitID,
		Name:         name,
		InitialMeter: initialMeter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks required fields and references.
func (p *Pump) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("pump name is required").WithDetail("field", "name")
	}
	if id.IsNil(p.StationID) {
		return apperror.NewValidation("station is required").WithDetail("field", "stationId")
	}
	if id.IsNil(p.PitID) {
		return apperror.NewValidation("pit is required").WithDetail("field", "pitId")
	}
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if p.InitialMeter.IsNegative() {
		return apperror.NewValidation("initial meter cannot be negative").WithDetail("field", "initialMeter")
	}
	return nil
}
