package handler

import (
	"net/http"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/transport"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/httpkit"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for business settings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new settings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves all settings.
// GET /api/v1/settings
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get retrieves a single setting by key.
// GET /api/v1/settings/:key
func (h *Handler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		httpkit.Error(c, http.StatusBadRequest, "key is required", nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Upsert creates or updates a setting (admin only).
// PUT /api/v1/admin/settings
func (h *Handler) Upsert(c *gin.Context) {
	var req transport.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.Upsert(c.Request.Context(), req.Key, req.Value, req.Description, performedBy(c)); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func performedBy(c *gin.Context) *uuid.UUID {
	if id, ok := httpkit.UserID(c); ok {
		return &id
	}
	return nil
}
