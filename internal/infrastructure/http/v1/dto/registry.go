package dto

import (
	"github.com/shopspring/decimal"
)

// CreateStationRequest registers a station for the acting owner.
type CreateStationRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
}

// UpdateStationRequest modifies station fields.
type UpdateStationRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
}

// AssignManagerRequest binds a manager to a station.
type AssignManagerRequest struct {
	ManagerID string `json:"managerId" binding:"required,uuid"`
}

// CreateProductRequest registers a fuel product.
type CreateProductRequest struct {
	StationID   string  `json:"stationId" binding:"required,uuid"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CreatePitRequest registers a storage pit.
type CreatePitRequest struct {
	StationID     string          `json:"stationId" binding:"required,uuid"`
	ProductID     string          `json:"productId" binding:"required,uuid"`
	Name          string          `json:"name" binding:"required"`
	CurrentVolume decimal.Decimal `json:"currentVolume"`
	MaxVolume     decimal.Decimal `json:"maxVolume"`
}

// CreatePumpRequest registers a dispensing pump.
type CreatePumpRequest struct {
	StationID    string          `json:"stationId" binding:"required,uuid"`
	ProductID    string          `json:"productId" binding:"required,uuid"`
	PitID        string          `json:"pitId" binding:"required,uuid"`
	Name         string          `json:"name" binding:"required"`
	InitialMeter decimal.Decimal `json:"initialMeter"`
}
