package handlers

import (
	"github.com/gin-gonic/gin"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/auth"
	"gasworld/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves registration and session endpoints.
type AuthHandler struct {
	base    *BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{base: base, service: service}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	var stationID *id.ID
	if req.StationID != nil {
		parsed, err := id.Parse(*req.StationID)
		if err != nil {
			h.base.Error(c, apperror.NewValidation("invalid station id"))
			return
		}
		stationID = &parsed
	}

	u, err := h.service.Register(c.Request.Context(), auth.RegisterParams{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		StationID: stationID,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Created(c, u.ID.String())
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	u, pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         dto.FromUser(u),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresAt":    pair.ExpiresAt,
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), actorID); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.Success(c, "logged out")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	actorID, ok := h.base.ActorID(c)
	if !ok {
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), actorID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromUser(u))
}

// Deactivate handles DELETE /users/:id. Deactivation revokes sessions and
// invalidates cached capabilities; the account row is kept for history.
func (h *AuthHandler) Deactivate(c *gin.Context) {
	userID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), userID); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.NoContent(c)
}

// ListStaff handles GET /stations/:id/staff.
func (h *AuthHandler) ListStaff(c *gin.Context) {
	stationID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	users, err := h.service.ListByStation(c.Request.Context(), stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.FromUser(u))
	}
	h.base.OK(c, out)
}

// Reassign handles PUT /users/:id/assignment.
func (h *AuthHandler) Reassign(c *gin.Context) {
	userID, ok := h.base.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReassignRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	var stationID *id.ID
	if req.StationID != nil {
		parsed, err := id.Parse(*req.StationID)
		if err != nil {
			h.base.Error(c, apperror.NewValidation("invalid station id"))
			return
		}
		stationID = &parsed
	}

	u, err := h.service.Reassign(c.Request.Context(), userID, req.Role, stationID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.FromUser(u))
}
