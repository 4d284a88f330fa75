// Package audit provides the append-only audit trail: an event-bus sink
// that records every order transition, edit, and setting change.
package audit

import (
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/handler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the audit bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the audit module and subscribes it to the event bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	svc.RegisterHandlers(bus)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// RegisterRoutes mounts audit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/audit", m.handler.List)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
