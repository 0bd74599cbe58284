package handlers

import (
	"github.com/gin-gonic/gin"

	"gasworld/internal/core/id"
	"gasworld/internal/domain/product"
	"gasworld/internal/domain/station"
	"gasworld/internal/infrastructure/http/v1/dto"
)

// RegistryHandler serves the station/product/pump registry endpoints.
type RegistryHandler struct {
	base     *BaseHandler
	stations *station.Service
	products *product.Service
}

// NewRegistryHandler creates a registry handler.
func NewRegistryHandler(base *BaseHandler, stations *station.Service, products *product.Service) *RegistryHandler {
	return &RegistryHandler{base: base, stations: stations, products: products}
}

// CreateStation handles POST /stations.
func (h *RegistryHandler) CreateStation(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.CreateStationRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	st := station.NewStation(actorID, req.Name)
	st.Address = req.Address
	st.City = req.City
	st.State = req.State
	if err := h.stations.Create(c.Request.Context(), st); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Created(c, st.ID.String())
}

// GetStation handles GET /stations/:id.
func (h *RegistryHandler) GetStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	st, err := h.stations.GetByID(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, st)
}

// ListStations handles GET /stations (the acting owner's stations).
func (h *RegistryHandler) ListStations(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	list, err := h.stations.ListByOwner(c.Request.Context(), actorID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, list)
}

// UpdateStation handles PUT /stations/:id.
func (h *RegistryHandler) UpdateStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStationRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	st, err := h.stations.Update(c.Request.Context(), stationID, station.UpdateParams{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, st)
}

// AssignManager handles PUT /stations/:id/manager.
func (h *RegistryHandler) AssignManager(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignManagerRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	managerID, ok := h.parseID(c, req.ManagerID)
	if !ok {
		return
	}
	if err := h.stations.AssignManager(c.Request.Context(), stationID, managerID); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Success(c, "manager assigned")
}

// DeleteStation handles DELETE /stations/:id.
func (h *RegistryHandler) DeleteStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.stations.Delete(c.Request.Context(), stationID); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.NoContent(c)
}

// CreateProduct handles POST /products.
func (h *RegistryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	stationID, ok := h.parseID(c, req.StationID)
	if !ok {
		return
	}

	p := product.NewProduct(stationID, req.Name)
	p.Description = req.Description
	if err := h.products.CreateProduct(c.Request.Context(), p); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Created(c, p.ID.String())
}

// ListProducts handles GET /stations/:id/products.
func (h *RegistryHandler) ListProducts(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.products.ListProductsByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, list)
}

// CreatePump handles POST /pumps.
func (h *RegistryHandler) CreatePump(c *gin.Context) {
	var req dto.CreatePumpRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	stationID, ok := h.parseID(c, req.StationID)
	if !ok {
		return
	}
	productID, ok := h.parseID(c, req.ProductID)
	if !ok {
		return
	}
	pitID, ok := h.parseID(c, req.PitID)
	if !ok {
		return
	}

	p := product.NewPump(stationID, productID, pitID, req.Name, req.InitialMeter)
	if err := h.products.CreatePump(c.Request.Context(), p); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Created(c, p.ID.String())
}

// GetPump handles GET /pumps/:id.
func (h *RegistryHandler) GetPump(c *gin.Context) {
	pumpID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.GetPump(c.Request.Context(), pumpID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, p)
}

// ListPumps handles GET /stations/:id/pumps.
func (h *RegistryHandler) ListPumps(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.products.ListPumpsByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, list)
}

func (h *RegistryHandler) parseID(c *gin.Context, raw string) (id.ID, bool) {
	return h.base.ParseID(c, raw)
}
