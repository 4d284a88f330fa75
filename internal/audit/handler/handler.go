package handler

import (
	"net/http"
	"strconv"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP reads of the audit trail.
type Handler struct {
	svc *service.Service
}

// New creates a new audit handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// List retrieves audit entries, newest first.
// GET /api/v1/admin/audit
func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{
		Action: c.Query("action"),
	}
	if raw := c.Query("orderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid order ID", nil)
			return
		}
		params.OrderID = &id
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}
