// Package execution provides the shop-floor bounded context: collaborator
// assignments, time segments, guarded order transitions, rework debits, and
// the derived status read model.
package execution

import (
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/handler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/service"
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the execution bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the execution module.
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
	return "execution"
}

// Service returns the service layer for external use. The composition root
// wires it into the orders module as the overlay source and into the
// scheduler as the pause tolerance sweeper.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetSweepEnqueuer wires the scheduler client for operator-triggered sweeps.
func (m *Module) SetSweepEnqueuer(enqueuer handler.SweepEnqueuer) {
	m.handler.SetSweepEnqueuer(enqueuer)
}

// RegisterRoutes mounts execution routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/execution/pause-sweep", m.handler.SweepNow)

	orders := ctx.Protected.Group("/orders/:id")
	orders.GET("/execution", m.handler.View)
	orders.POST("/start", m.handler.Start)
	orders.POST("/pause", m.handler.Pause)
	orders.POST("/stop", m.handler.Stop)
	orders.POST("/resume", m.handler.Resume)
	orders.POST("/finish", m.handler.Finish)
	orders.POST("/send-to-client", m.handler.SendToClient)
	orders.POST("/return-from-client", m.handler.ReturnFromClient)

	collabs := orders.Group("/collaborators")
	collabs.POST("", m.handler.Assign)
	collabs.DELETE("/:collaboratorId", m.handler.Remove)
	collabs.POST("/:collaboratorId/pause", m.handler.PauseCollaborator)
	collabs.POST("/:collaboratorId/stop", m.handler.StopCollaborator)
	collabs.POST("/:collaboratorId/resume", m.handler.ResumeCollaborator)
	collabs.POST("/:collaboratorId/finish", m.handler.FinishCollaborator)
	collabs.POST("/:collaboratorId/products/:productId/start", m.handler.StartOnProduct)
	collabs.PUT("/:collaboratorId/hours", m.handler.AdjustHours)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
