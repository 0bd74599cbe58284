package handlers

import (
	"github.com/gin-gonic/gin"

	"gasworld/internal/domain/pit"
	"gasworld/internal/infrastructure/http/v1/dto"
)

// PitHandler serves pit inventory endpoints.
type PitHandler struct {
	base    *BaseHandler
	service *pit.Service
}

// NewPitHandler creates a pit handler.
func NewPitHandler(base *BaseHandler, service *pit.Service) *PitHandler {
	return &PitHandler{base: base, service: service}
}

// Create handles POST /pits.
func (h *PitHandler) Create(c *gin.Context) {
	var req dto.CreatePitRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	stationID, ok := h.base.ParseID(c, req.StationID)
	if !ok {
		return
	}
	productID, ok := h.base.ParseID(c, req.ProductID)
	if !ok {
		return
	}

	p := pit.NewPit(stationID, productID, req.Name, req.CurrentVolume, req.MaxVolume)
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Created(c, p.ID.String())
}

// Get handles GET /pits/:id.
func (h *PitHandler) Get(c *gin.Context) {
	pitID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), pitID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, p)
}

// ListByStation handles GET /stations/:id/pits.
func (h *PitHandler) ListByStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, list)
}

// AdjustVolume handles POST /pits/:id/adjustments.
func (h *PitHandler) AdjustVolume(c *gin.Context) {
	pitID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.AdjustVolumeRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AdjustVolume(c.Request.Context(), pitID, req.Delta, actorID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, p)
}

// RecordReading handles POST /pits/:id/readings (manual dip measurement).
func (h *PitHandler) RecordReading(c *gin.Context) {
	pitID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.RecordPitReadingRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	snap, err := h.service.Record(c.Request.Context(), pit.RecordParams{
		PitID:              pitID,
		OpeningStock:       req.OpeningStock,
		ActualClosingStock: req.ActualClosingStock,
		ActorID:            actorID,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromPitReading(snap))
}

// ListReadings handles GET /pits/:id/readings.
func (h *PitHandler) ListReadings(c *gin.Context) {
	pitID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListReadings(c.Request.Context(), pitID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromPitReadings(list))
}
