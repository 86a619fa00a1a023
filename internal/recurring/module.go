// Package recurring provides the recurring services bounded context module.
// A recurring service is a schedule template that the generation engine
// turns into concrete pending services on a cadence.
package recurring

import (
	apphttp "wasteops_backend/internal/http"

	accountsservice "wasteops_backend/internal/accounts/service"
	"wasteops_backend/internal/events"
	"wasteops_backend/internal/recurring/handler"
	"wasteops_backend/internal/recurring/repository"
	"wasteops_backend/internal/recurring/service"
	servicesrepo "wasteops_backend/internal/services/repository"
	"wasteops_backend/platform/config"
	"wasteops_backend/platform/logger"
	"wasteops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the recurring services bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the recurring module with all its dependencies.
func NewModule(pool *pgxpool.Pool, factory *servicesrepo.Repo, accounts *accountsservice.Service, bus events.Bus, cfg config.GenerationConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, factory, accounts, bus, log)
	h := handler.New(svc, cfg, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "recurring"
}

// Service returns the service layer for external use, such as the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts recurring schedule routes on the provided router context.
// The whole surface is management-only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Management.Group("/recurring-services")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.POST("/:id/pause", m.handler.Pause)
	group.POST("/:id/resume", m.handler.Resume)
	group.POST("/:id/cancel", m.handler.Cancel)
	group.POST("/:id/reactivate", m.handler.Reactivate)
	group.POST("/:id/generate", m.handler.Generate)
	group.POST("/generate-due", m.handler.GenerateDue)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
