package handler

import (
	"net/http"
	"strings"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/transport"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/httpkit"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
)

// Handler handles HTTP requests for the registry.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new registry handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateClient registers a client.
// POST /api/v1/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var req transport.CreateClientRequest
	if !h.bind(c, &req) {
		return
	}
	client, err := h.svc.CreateClient(c.Request.Context(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, client)
}

// UpdateClient edits a client.
// PUT /api/v1/clients/:id
func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateClientRequest
	if !h.bind(c, &req) {
		return
	}
	client, err := h.svc.UpdateClient(c.Request.Context(), id, req.Name, req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, client)
}

// GetClient retrieves a client.
// GET /api/v1/clients/:id
func (h *Handler) GetClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	client, err := h.svc.GetClient(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, client)
}

// ListClients retrieves clients.
// GET /api/v1/clients
func (h *Handler) ListClients(c *gin.Context) {
	items, err := h.svc.ListClients(c.Request.Context(), listParams(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

// CreateCollaborator registers a collaborator.
// POST /api/v1/collaborators
func (h *Handler) CreateCollaborator(c *gin.Context) {
	var req transport.CreateCollaboratorRequest
	if !h.bind(c, &req) {
		return
	}
	collaborator, err := h.svc.CreateCollaborator(c.Request.Context(), req.Name, req.Role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, collaborator)
}

// UpdateCollaborator edits a collaborator.
// PUT /api/v1/collaborators/:id
func (h *Handler) UpdateCollaborator(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateCollaboratorRequest
	if !h.bind(c, &req) {
		return
	}
	collaborator, err := h.svc.UpdateCollaborator(c.Request.Context(), id, req.Name, req.Role, req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, collaborator)
}

// GetCollaborator retrieves a collaborator.
// GET /api/v1/collaborators/:id
func (h *Handler) GetCollaborator(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	collaborator, err := h.svc.GetCollaborator(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, collaborator)
}

// ListCollaborators retrieves collaborators.
// GET /api/v1/collaborators
func (h *Handler) ListCollaborators(c *gin.Context) {
	items, err := h.svc.ListCollaborators(c.Request.Context(), listParams(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

// CreateProduct registers a product.
// POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req transport.CreateProductRequest
	if !h.bind(c, &req) {
		return
	}
	product, err := h.svc.CreateProduct(c.Request.Context(), req.Name, req.UnitPriceCents)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, product)
}

// UpdateProduct edits a product.
// PUT /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateProductRequest
	if !h.bind(c, &req) {
		return
	}
	product, err := h.svc.UpdateProduct(c.Request.Context(), id, req.Name, req.UnitPriceCents, req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, product)
}

// GetProduct retrieves a product.
// GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, product)
}

// ListProducts retrieves products.
// GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	items, err := h.svc.ListProducts(c.Request.Context(), listParams(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func listParams(c *gin.Context) repository.ListParams {
	return repository.ListParams{
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: strings.EqualFold(c.DefaultQuery("activeOnly", "false"), "true"),
	}
}
