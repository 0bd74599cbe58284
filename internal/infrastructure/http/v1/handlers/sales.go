package handlers

import (
	"github.com/gin-gonic/gin"

	"gasworld/internal/domain/sales"
	"gasworld/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves reconciliation endpoints.
type SalesHandler struct {
	base    *BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{base: base, service: service}
}

// Get handles GET /sales/:id.
func (h *SalesHandler) Get(c *gin.Context) {
	salesID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.GetByID(c.Request.Context(), salesID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSales(s))
}

// GetByReading handles GET /readings/:id/sales.
func (h *SalesHandler) GetByReading(c *gin.Context) {
	readingID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.GetByReading(c.Request.Context(), readingID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSales(s))
}

// Update handles PUT /sales/:id.
func (h *SalesHandler) Update(c *gin.Context) {
	salesID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.UpdateSalesRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	s, err := h.service.Update(c.Request.Context(), salesID, sales.UpdateParams{
		Cash:     req.Cash,
		Transfer: req.Transfer,
		POS:      req.POS,
		Expenses: req.Expenses,
	}, actorID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSales(s))
}

// Close handles POST /sales/:id/close.
func (h *SalesHandler) Close(c *gin.Context) {
	salesID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}

	s, err := h.service.Close(c.Request.Context(), salesID, actorID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSales(s))
}

// ListByAttendant handles GET /attendants/:id/sales.
func (h *SalesHandler) ListByAttendant(c *gin.Context) {
	attendantID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListByAttendant(c.Request.Context(), attendantID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSalesList(list))
}

// ListByStation handles GET /stations/:id/sales.
func (h *SalesHandler) ListByStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromSalesList(list))
}
