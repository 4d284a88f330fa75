// Package settings provides the business configuration bounded context.
// Operational settings such as pause tolerance and the order number prefix
// live in the database rather than the environment so the shop can change
// them without a redeploy.
package settings

import (
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/handler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the settings module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/settings", m.handler.List)
	ctx.Protected.GET("/settings/:key", m.handler.Get)

	ctx.Admin.PUT("/settings", m.handler.Upsert)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
