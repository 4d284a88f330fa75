// Package orders provides the service-order aggregate bounded context:
// registration, number issuance, header and product line edits, and reads
// decorated with the execution-derived display status.
package orders

import (
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/handler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the orders module.
func NewModule(pool *pgxpool.Pool, settings service.Settings, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, settings, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// SetOverlaySource wires the execution read model into order reads.
func (m *Module) SetOverlaySource(src service.OverlaySource) {
	m.service.SetOverlaySource(src)
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/orders")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Update)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
