package handler

import (
	"net/http"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/transport"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/httpkit"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid order ID"
)

// Handler handles HTTP requests for service orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create registers a new service order.
// POST /api/v1/orders
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}
	lines, err := parseLines(req.Lines)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid product ID in lines", nil)
		return
	}

	order, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		ClientID:       clientID,
		Description:    req.Description,
		SiteTag:        req.SiteTag,
		PredictedHours: req.PredictedHours,
		Lines:          lines,
		PerformedBy:    performedBy(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, order)
}

// Update edits an order header and optionally replaces its lines.
// PUT /api/v1/orders/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	input := service.UpdateInput{ID: id, PerformedBy: performedBy(c)}
	input.Description = req.Description
	input.SiteTag = req.SiteTag
	input.PredictedHours = req.PredictedHours

	if req.ClientID != nil {
		clientID, err := uuid.Parse(*req.ClientID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
			return
		}
		input.ClientID = &clientID
	}
	if req.Lines != nil {
		lines, err := parseLines(*req.Lines)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid product ID in lines", nil)
			return
		}
		input.Lines = &lines
	}

	order, err := h.svc.Update(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, order)
}

// Get retrieves an order with lines and display status.
// GET /api/v1/orders/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List retrieves orders with filters and pagination.
// GET /api/v1/orders
func (h *Handler) List(c *gin.Context) {
	var req transport.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	params := repository.ListParams{
		Status: req.Status,
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
			return
		}
		params.ClientID = &clientID
	}

	result, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseLines(reqs []transport.LineRequest) ([]repository.LineParams, error) {
	lines := make([]repository.LineParams, 0, len(reqs))
	for _, r := range reqs {
		productID, err := uuid.Parse(r.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, repository.LineParams{
			ProductID:      productID,
			Quantity:       r.Quantity,
			UnitPriceCents: r.UnitPriceCents,
		})
	}
	return lines, nil
}

func performedBy(c *gin.Context) *uuid.UUID {
	if id, ok := httpkit.UserID(c); ok {
		return &id
	}
	return nil
}
