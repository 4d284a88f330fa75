// Package registry provides the referent bounded context: the clients,
// collaborators, and products that service orders point at.
package registry

import (
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/handler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the registry bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the registry module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "registry"
}

// RegisterRoutes mounts registry routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	clients := ctx.Protected.Group("/clients")
	clients.GET("", m.handler.ListClients)
	clients.POST("", m.handler.CreateClient)
	clients.GET("/:id", m.handler.GetClient)
	clients.PUT("/:id", m.handler.UpdateClient)

	collaborators := ctx.Protected.Group("/collaborators")
	collaborators.GET("", m.handler.ListCollaborators)
	collaborators.POST("", m.handler.CreateCollaborator)
	collaborators.GET("/:id", m.handler.GetCollaborator)
	collaborators.PUT("/:id", m.handler.UpdateCollaborator)

	products := ctx.Protected.Group("/products")
	products.GET("", m.handler.ListProducts)
	products.POST("", m.handler.CreateProduct)
	products.GET("/:id", m.handler.GetProduct)
	products.PUT("/:id", m.handler.UpdateProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
