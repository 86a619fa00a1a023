// Package services provides the service lifecycle bounded context module.
// A service is one scheduled waste-collection work order moving through
// pending, approved, in progress, and the terminal completed or cancelled
// states.
package services

import (
	apphttp "wasteops_backend/internal/http"

	accountsservice "wasteops_backend/internal/accounts/service"
	"wasteops_backend/internal/events"
	"wasteops_backend/internal/services/handler"
	"wasteops_backend/internal/services/repository"
	"wasteops_backend/internal/services/service"
	"wasteops_backend/platform/logger"
	"wasteops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the services bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the services module with all its dependencies.
func NewModule(pool *pgxpool.Pool, accounts *accountsservice.Service, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, accounts, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "services"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the concrete repository. The recurring module uses it
// as the service factory so generation shares the creation transaction.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts service lifecycle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/services")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.POST("/:id/complete", m.handler.Complete)
	group.POST("/:id/logs", m.handler.LogCompletion)
	group.GET("/:id/logs", m.handler.ListLogs)
	group.GET("/logs/mine", m.handler.ListMyLogs)

	// Approval workflow and assignment are management-only.
	mgmt := ctx.Management.Group("/services")
	mgmt.GET("/pending", m.handler.ListPending)
	mgmt.GET("/today", m.handler.ListToday)
	mgmt.POST("/:id/approve", m.handler.Approve)
	mgmt.POST("/:id/reject", m.handler.Reject)
	mgmt.POST("/:id/assign", m.handler.AssignCollector)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
