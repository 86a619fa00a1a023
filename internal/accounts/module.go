// Package accounts provides read access to user accounts and organizations.
// Provisioning and authentication happen in a separate identity service;
// this module exposes the lookups the operations modules need, such as
// collector eligibility and the organization's primary contact.
package accounts

import (
	apphttp "wasteops_backend/internal/http"

	"wasteops_backend/internal/accounts/handler"
	"wasteops_backend/internal/accounts/repository"
	"wasteops_backend/internal/accounts/service"
	"wasteops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the accounts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the accounts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "accounts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts account routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Management.GET("/collectors/available", m.handler.AvailableCollectors)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
