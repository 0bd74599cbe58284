package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/audit"
)

const defaultHistoryLimit = 50

// HistorySource reads back persisted audit entries.
type HistorySource interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	base   *BaseHandler
	source HistorySource
}

// NewAuditHandler creates the audit trail handler.
func NewAuditHandler(base *BaseHandler, source HistorySource) *AuditHandler {
	return &AuditHandler{base: base, source: source}
}

// History handles GET /audit/:entityType/:id.
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	switch entityType {
	case "pump_reading", "sales", "pit":
	default:
		h.base.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entity_type", entityType))
		return
	}

	entityID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			h.base.Error(c, apperror.NewValidation("invalid limit").WithDetail("limit", raw))
			return
		}
		limit = n
	}

	entries, err := h.source.History(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, entries)
}
