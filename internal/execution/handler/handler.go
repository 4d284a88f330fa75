package handler

import (
	"context"
	"net/http"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/transport"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/httpkit"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest        = "invalid request"
	msgValidationFailed      = "validation failed"
	msgInvalidOrderID        = "invalid order ID"
	msgInvalidCollaboratorID = "invalid collaborator ID"
	msgInvalidProductID      = "invalid product ID"
)

// SweepEnqueuer queues an immediate pause tolerance sweep on the worker.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context) error
}

// Handler handles HTTP requests for order execution.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer SweepEnqueuer
}

// New creates a new execution handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetSweepEnqueuer wires the scheduler client for operator-triggered sweeps.
// Without it the sweep runs inline.
func (h *Handler) SetSweepEnqueuer(enqueuer SweepEnqueuer) {
	h.enqueuer = enqueuer
}

// SweepNow triggers a pause tolerance sweep without waiting for the next
// scheduled tick.
// POST /api/v1/admin/execution/pause-sweep
func (h *Handler) SweepNow(c *gin.Context) {
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueSweep(c.Request.Context()); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "failed to enqueue sweep", nil)
			return
		}
		c.Status(http.StatusAccepted)
		return
	}

	resumed, err := h.svc.SweepExpiredPauses(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"resumed": resumed})
}

// View returns the execution read model for an order.
// GET /api/v1/orders/:id/execution
func (h *Handler) View(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	view, err := h.svc.View(c.Request.Context(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// Start begins execution of an order.
// POST /api/v1/orders/:id/start
func (h *Handler) Start(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	err := h.svc.StartOrder(c.Request.Context(), orderID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Pause pauses the whole order with a mandatory justification.
// POST /api/v1/orders/:id/pause
func (h *Handler) Pause(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	reason, ok := h.reason(c)
	if !ok {
		return
	}
	err := h.svc.PauseOrder(c.Request.Context(), orderID, reason, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Stop opens a material stop for every collaborator on the order.
// POST /api/v1/orders/:id/stop
func (h *Handler) Stop(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	reason, ok := h.reason(c)
	if !ok {
		return
	}
	err := h.svc.StopOrder(c.Request.Context(), orderID, reason, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Resume resumes a paused or stopped order.
// POST /api/v1/orders/:id/resume
func (h *Handler) Resume(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	err := h.svc.ResumeOrder(c.Request.Context(), orderID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Finish ends execution, applying the operator discount.
// POST /api/v1/orders/:id/finish
func (h *Handler) Finish(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req transport.FinishOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.FinishOrder(c.Request.Context(), orderID, req.DiscountKind, req.DiscountValue, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// SendToClient parks an open order at the client's site.
// POST /api/v1/orders/:id/send-to-client
func (h *Handler) SendToClient(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	err := h.svc.SendToClient(c.Request.Context(), orderID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// ReturnFromClient brings an at-client order back to production.
// POST /api/v1/orders/:id/return-from-client
func (h *Handler) ReturnFromClient(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	err := h.svc.ReturnFromClient(c.Request.Context(), orderID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Assign apportions a collaborator to the order.
// POST /api/v1/orders/:id/collaborators
func (h *Handler) Assign(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req transport.AssignCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	collaboratorID, err := uuid.Parse(req.CollaboratorID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCollaboratorID, nil)
		return
	}
	productID, ok := h.optionalProductID(c, req.ProductID)
	if !ok {
		return
	}

	assignment, err := h.svc.AssignCollaborator(c.Request.Context(), orderID, collaboratorID, productID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, assignment)
}

// Remove takes a collaborator off the order, closing anything they held open.
// DELETE /api/v1/orders/:id/collaborators/:collaboratorId
func (h *Handler) Remove(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	err := h.svc.RemoveCollaborator(c.Request.Context(), orderID, collaboratorID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// PauseCollaborator pauses one collaborator on the order.
// POST /api/v1/orders/:id/collaborators/:collaboratorId/pause
func (h *Handler) PauseCollaborator(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	reason, ok := h.reason(c)
	if !ok {
		return
	}
	err := h.svc.PauseCollaborator(c.Request.Context(), orderID, collaboratorID, reason, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// StopCollaborator opens a material stop for one collaborator.
// POST /api/v1/orders/:id/collaborators/:collaboratorId/stop
func (h *Handler) StopCollaborator(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	reason, ok := h.reason(c)
	if !ok {
		return
	}
	err := h.svc.StopCollaborator(c.Request.Context(), orderID, collaboratorID, reason, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// ResumeCollaborator closes a collaborator's pause or stop and puts them back
// to work.
// POST /api/v1/orders/:id/collaborators/:collaboratorId/resume
func (h *Handler) ResumeCollaborator(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	err := h.svc.ResumeCollaborator(c.Request.Context(), orderID, collaboratorID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// FinishCollaborator closes everything a collaborator holds open on the order.
// POST /api/v1/orders/:id/collaborators/:collaboratorId/finish
func (h *Handler) FinishCollaborator(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	err := h.svc.FinishCollaborator(c.Request.Context(), orderID, collaboratorID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// StartOnProduct puts a collaborator to work on a specific product line.
// POST /api/v1/orders/:id/collaborators/:collaboratorId/products/:productId/start
func (h *Handler) StartOnProduct(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidProductID, nil)
		return
	}
	err = h.svc.StartCollaboratorOnProduct(c.Request.Context(), orderID, collaboratorID, productID, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// AdjustHours overrides the recorded hours for an assignment.
// PUT /api/v1/orders/:id/collaborators/:collaboratorId/hours
func (h *Handler) AdjustHours(c *gin.Context) {
	orderID, collaboratorID, ok := h.orderAndCollaborator(c)
	if !ok {
		return
	}

	var req transport.AdjustHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	productID, ok := h.optionalProductID(c, req.ProductID)
	if !ok {
		return
	}

	err := h.svc.AdjustHours(c.Request.Context(), orderID, collaboratorID, productID, req.Hours, req.Justification, performedBy(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrderID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) orderAndCollaborator(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	orderID, ok := h.orderID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	collaboratorID, err := uuid.Parse(c.Param("collaboratorId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCollaboratorID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, collaboratorID, true
}

func (h *Handler) reason(c *gin.Context) (string, bool) {
	var req transport.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return "", false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return "", false
	}
	return req.Reason, true
}

func (h *Handler) optionalProductID(c *gin.Context, raw *string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidProductID, nil)
		return nil, false
	}
	return &id, true
}

func performedBy(c *gin.Context) *uuid.UUID {
	if id, ok := httpkit.UserID(c); ok {
		return &id
	}
	return nil
}
