package handlers

import (
	"github.com/gin-gonic/gin"

	"gasworld/internal/domain/reading"
	"gasworld/internal/infrastructure/http/v1/dto"
)

// ReadingHandler serves meter reading endpoints.
type ReadingHandler struct {
	base     *BaseHandler
	recorder *reading.Recorder
}

// NewReadingHandler creates a reading handler.
func NewReadingHandler(base *BaseHandler, recorder *reading.Recorder) *ReadingHandler {
	return &ReadingHandler{base: base, recorder: recorder}
}

// Open handles POST /readings (manager opens a reading for an attendant).
func (h *ReadingHandler) Open(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.OpenReadingRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	pumpID, ok := h.base.ParseID(c, req.PumpID)
	if !ok {
		return
	}
	attendantID, ok := h.base.ParseID(c, req.AttendantID)
	if !ok {
		return
	}

	r, err := h.recorder.Open(c.Request.Context(), reading.OpenParams{
		PumpID:      pumpID,
		AttendantID: attendantID,
		Rate:        req.Rate,
		ActorID:     actorID,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReading(r))
}

// Close handles PUT /readings/:id/closing (attendant submits closing meter).
func (h *ReadingHandler) Close(c *gin.Context) {
	readingID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.CloseReadingRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	r, err := h.recorder.RecordClosing(c.Request.Context(), readingID, actorID, req.ClosingMeter)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReading(r))
}

// Record handles POST /readings/record (open and close in one call).
func (h *ReadingHandler) Record(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	var req dto.RecordReadingRequest
	if !h.base.BindJSON(c, &req) {
		return
	}
	pumpID, ok := h.base.ParseID(c, req.PumpID)
	if !ok {
		return
	}
	attendantID, ok := h.base.ParseID(c, req.AttendantID)
	if !ok {
		return
	}

	r, err := h.recorder.Record(c.Request.Context(), reading.RecordParams{
		PumpID:       pumpID,
		AttendantID:  attendantID,
		ClosingMeter: req.ClosingMeter,
		Rate:         req.Rate,
		ActorID:      actorID,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReading(r))
}

// Get handles GET /readings/:id.
func (h *ReadingHandler) Get(c *gin.Context) {
	readingID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	r, err := h.recorder.GetByID(c.Request.Context(), readingID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReading(r))
}

// ListByPump handles GET /pumps/:id/readings.
func (h *ReadingHandler) ListByPump(c *gin.Context) {
	pumpID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.recorder.ListByPump(c.Request.Context(), pumpID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReadings(list))
}

// ListByAttendant handles GET /attendants/:id/readings.
func (h *ReadingHandler) ListByAttendant(c *gin.Context) {
	attendantID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.recorder.ListByAttendant(c.Request.Context(), attendantID, defaultHistoryLimit)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReadings(list))
}

// ListByStation handles GET /stations/:id/readings.
func (h *ReadingHandler) ListByStation(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.recorder.ListByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromReadings(list))
}
