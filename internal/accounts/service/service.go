// Package service contains account business logic consumed by the
// operations modules.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wasteops_backend/internal/accounts/repository"
	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/logger"
)

// Service provides account lookups and collector eligibility checks.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new accounts service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// AvailableCollectors lists active collector accounts for assignment pickers.
func (s *Service) AvailableCollectors(ctx context.Context, organizationID uuid.UUID) ([]repository.User, error) {
	return s.repo.ListActiveCollectors(ctx, organizationID)
}

// VerifyActiveCollector confirms the user exists, belongs to the given
// organization, holds the collector role, and is active. Assignment
// endpoints call this before any status change so a service can never be
// handed to an ineligible account.
func (s *Service) VerifyActiveCollector(ctx context.Context, organizationID, userID uuid.UUID) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.OrganizationID != organizationID {
		return apperr.NotFound("user not found")
	}
	if user.Role != httpkit.RoleCollector {
		return apperr.InvalidRole(fmt.Sprintf("user %s has role %q, collector required", userID, user.Role))
	}
	if !user.IsActive {
		return apperr.InvalidRole(fmt.Sprintf("collector %s is deactivated", userID))
	}

	return nil
}

// PrimaryContact resolves the organization's notification recipient.
func (s *Service) PrimaryContact(ctx context.Context, organizationID uuid.UUID) (uuid.UUID, error) {
	return s.repo.PrimaryContact(ctx, organizationID)
}
