package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gasworld/internal/domain/pit"
	"gasworld/internal/domain/reading"
	"gasworld/internal/domain/sales"
)

// OpenReadingRequest starts a reading on a pump.
type OpenReadingRequest struct {
	PumpID      string           `json:"pumpId" binding:"required,uuid"`
	AttendantID string           `json:"attendantId" binding:"required,uuid"`
	Rate        *decimal.Decimal `json:"rate"`
}

// CloseReadingRequest records the closing meter.
type CloseReadingRequest struct {
	ClosingMeter decimal.Decimal `json:"closingMeter" binding:"required"`
}

// RecordReadingRequest opens and closes a reading in one call.
type RecordReadingRequest struct {
	PumpID       string           `json:"pumpId" binding:"required,uuid"`
	AttendantID  string           `json:"attendantId" binding:"required,uuid"`
	ClosingMeter decimal.Decimal  `json:"closingMeter" binding:"required"`
	Rate         *decimal.Decimal `json:"rate"`
}

// ReadingResponse is the public view of a pump reading.
type ReadingResponse struct {
	ID           string           `json:"id"`
	PumpID       string           `json:"pumpId"`
	AttendantID  string           `json:"attendantId"`
	OpeningMeter decimal.Decimal  `json:"openingMeter"`
	ClosingMeter *decimal.Decimal `json:"closingMeter,omitempty"`
	Rate         decimal.Decimal  `json:"rate"`
	LitersSold   decimal.Decimal  `json:"litersSold"`
	Amount       decimal.Decimal  `json:"amount"`
	Status       string           `json:"status"`
	Timestamp    time.Time        `json:"timestamp"`
}

// FromReading maps a reading to its response shape.
func FromReading(r *reading.PumpReading) ReadingResponse {
	return ReadingResponse{
		ID:           r.ID.String(),
		PumpID:       r.PumpID.String(),
		AttendantID:  r.AttendantID.String(),
		OpeningMeter: r.OpeningMeter,
		ClosingMeter: r.ClosingMeter,
		Rate:         r.Rate,
		LitersSold:   r.LitersSold(),
		Amount:       r.Amount(),
		Status:       string(r.Status),
		Timestamp:    r.Timestamp,
	}
}

// FromReadings maps a reading list.
func FromReadings(list []*reading.PumpReading) []ReadingResponse {
	out := make([]ReadingResponse, 0, len(list))
	for _, r := range list {
		out = append(out, FromReading(r))
	}
	return out
}

// UpdateSalesRequest sets collection fields on a sales record.
type UpdateSalesRequest struct {
	Cash     *decimal.Decimal `json:"cash"`
	Transfer *decimal.Decimal `json:"transfer"`
	POS      *decimal.Decimal `json:"pos"`
	Expenses *decimal.Decimal `json:"expenses"`
}

// SalesResponse is the public view of a sales record.
type SalesResponse struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	PumpReadingID    string          `json:"pumpReadingId"`
	StationID        string          `json:"stationId"`
	AttendantID      string          `json:"attendantId"`
	ExpectedAmount   decimal.Decimal `json:"expectedAmount"`
	Cash             decimal.Decimal `json:"cash"`
	Transfer         decimal.Decimal `json:"transfer"`
	POS              decimal.Decimal `json:"pos"`
	Expenses         decimal.Decimal `json:"expenses"`
	ShortageOrExcess decimal.Decimal `json:"shortageOrExcess"`
	IsActive         bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// FromSales maps a sales record to its response shape.
func FromSales(s *sales.Sales) SalesResponse {
	return SalesResponse{
		ID:               s.ID.String(),
		Number:           s.Number,
		PumpReadingID:    s.PumpReadingID.String(),
		StationID:        s.StationID.String(),
		AttendantID:      s.AttendantID.String(),
		ExpectedAmount:   s.ExpectedAmount,
		Cash:             s.Cash,
		Transfer:         s.Transfer,
		POS:              s.POS,
		Expenses:         s.Expenses,
		ShortageOrExcess: s.ShortageOrExcess,
		IsActive:         s.IsActive,
		CreatedAt:        s.CreatedAt,
	}
}

// FromSalesList maps a sales list.
func FromSalesList(list []*sales.Sales) []SalesResponse {
	out := make([]SalesResponse, 0, len(list))
	for _, s := range list {
		out = append(out, FromSales(s))
	}
	return out
}

// RecordPitReadingRequest takes a manual dip measurement.
type RecordPitReadingRequest struct {
	OpeningStock       *decimal.Decimal `json:"openingStock"`
	ActualClosingStock *decimal.Decimal `json:"actualClosingStock"`
}

// AdjustVolumeRequest applies a signed delta to a pit's stock.
type AdjustVolumeRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
}

// PitReadingResponse is the public view of a stock snapshot.
type PitReadingResponse struct {
	ID                 string           `json:"id"`
	PitID              string           `json:"pitId"`
	ReadingID          *string          `json:"readingId,omitempty"`
	OpeningStock       decimal.Decimal  `json:"openingStock"`
	ClosingStock       decimal.Decimal  `json:"closingStock"`
	ActualClosingStock *decimal.Decimal `json:"actualClosingStock,omitempty"`
	Supply             decimal.Decimal  `json:"supply"`
	ExcessOrShortage   *decimal.Decimal `json:"excessOrShortage"`
	Timestamp          time.Time        `json:"timestamp"`
}

// FromPitReading maps a snapshot to its response shape.
func FromPitReading(r *pit.PitReading) PitReadingResponse {
	resp := PitReadingResponse{
		ID:                 r.ID.String(),
		PitID:              r.PitID.String(),
		OpeningStock:       r.OpeningStock,
		ClosingStock:       r.ClosingStock,
		ActualClosingStock: r.ActualClosingStock,
		Supply:             r.Supply,
		ExcessOrShortage:   r.ExcessOrShortage(),
		Timestamp:          r.Timestamp,
	}
	if r.ReadingID != nil {
		s := r.ReadingID.String()
		resp.ReadingID = &s
	}
	return resp
}

// FromPitReadings maps a snapshot list.
func FromPitReadings(list []*pit.PitReading) []PitReadingResponse {
	out := make([]PitReadingResponse, 0, len(list))
	for _, r := range list {
		out = append(out, FromPitReading(r))
	}
	return out
}
