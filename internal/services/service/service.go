// Package service contains the service lifecycle business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wasteops_backend/internal/events"
	"wasteops_backend/internal/services/domain"
	"wasteops_backend/internal/services/repository"
	"wasteops_backend/internal/services/transport"
	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/logger"
)

// AccountVerifier checks collector eligibility before assignment.
type AccountVerifier interface {
	VerifyActiveCollector(ctx context.Context, organizationID, userID uuid.UUID) error
}

// Service implements the service request lifecycle: creation, the
// approval workflow, collector assignment, and completion logging.
type Service struct {
	repo     repository.Repository
	accounts AccountVerifier
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new lifecycle service.
func New(repo repository.Repository, accounts AccountVerifier, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Create registers a new service request. The status is server-assigned:
// requests always enter as pending unless a management caller pre-approves.
func (s *Service) Create(ctx context.Context, identity httpkit.Identity, req transport.CreateServiceRequest) (repository.Service, error) {
	scheduledDate, err := time.Parse(transport.DateLayout, req.ScheduledDate)
	if err != nil {
		return repository.Service{}, apperr.Validation(fmt.Sprintf("scheduledDate must use the %s format", transport.DateLayout))
	}

	today := truncateToDay(s.now())
	if scheduledDate.Before(today) {
		return repository.Service{}, apperr.Validation("scheduledDate cannot be in the past")
	}

	status := domain.StatusPending
	if req.Approve {
		if !identity.HasRole(httpkit.RoleManagement) {
			return repository.Service{}, apperr.InvalidRole("only management can pre-approve a service")
		}
		status = domain.StatusApproved
	}

	svc, err := s.repo.Create(ctx, repository.CreateParams{
		OrganizationID:     identity.OrganizationID(),
		ClientID:           req.ClientID,
		LocationID:         req.LocationID,
		ServiceTypeID:      req.ServiceTypeID,
		WasteCategoryID:    req.WasteCategoryID,
		WasteSubcategoryID: req.WasteSubcategoryID,
		Status:             status,
		ScheduledDate:      scheduledDate,
	})
	if err != nil {
		return repository.Service{}, err
	}

	s.bus.Publish(ctx, events.ServiceCreated{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      svc.ID,
		ServiceNumber:  svc.ServiceNumber,
		OrganizationID: svc.OrganizationID,
		ClientID:       svc.ClientID,
		ScheduledDate:  svc.ScheduledDate,
		CreatedBy:      identity.UserID(),
	})

	return svc, nil
}

// Approve moves a pending service to approved.
func (s *Service) Approve(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.Service, error) {
	svc, err := s.transition(ctx, identity, id, domain.StatusApproved)
	if err != nil {
		return repository.Service{}, err
	}

	s.bus.Publish(ctx, events.ServiceApproved{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      svc.ID,
		ServiceNumber:  svc.ServiceNumber,
		OrganizationID: svc.OrganizationID,
		ClientID:       svc.ClientID,
		ApprovedBy:     identity.UserID(),
	})

	return svc, nil
}

// Reject cancels a pending service. Cancelled is terminal.
func (s *Service) Reject(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.Service, error) {
	svc, err := s.transition(ctx, identity, id, domain.StatusCancelled)
	if err != nil {
		return repository.Service{}, err
	}

	s.bus.Publish(ctx, events.ServiceRejected{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      svc.ID,
		ServiceNumber:  svc.ServiceNumber,
		OrganizationID: svc.OrganizationID,
		ClientID:       svc.ClientID,
		RejectedBy:     identity.UserID(),
	})

	return svc, nil
}

// AssignCollector assigns an eligible collector to an approved service and
// moves it to in progress. Eligibility is verified before the atomic
// assign-and-transition update.
func (s *Service) AssignCollector(ctx context.Context, identity httpkit.Identity, id uuid.UUID, req transport.AssignCollectorRequest) (repository.Service, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Service{}, err
	}
	if err := s.guardOrganization(identity, current); err != nil {
		return repository.Service{}, err
	}
	if err := s.accounts.VerifyActiveCollector(ctx, current.OrganizationID, req.CollectorID); err != nil {
		return repository.Service{}, err
	}

	svc, err := s.repo.AssignCollector(ctx, id, req.CollectorID)
	if err != nil {
		s.logRejection(id, current.Status, domain.StatusApproved, err)
		return repository.Service{}, err
	}

	s.log.ServiceTransition(svc.ID.String(), string(domain.StatusApproved), string(svc.Status), identity.UserID().String())
	s.bus.Publish(ctx, events.CollectorAssigned{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      svc.ID,
		ServiceNumber:  svc.ServiceNumber,
		OrganizationID: svc.OrganizationID,
		CollectorID:    req.CollectorID,
		AssignedBy:     identity.UserID(),
	})

	return svc, nil
}

// Complete moves an in-progress service to completed. Only the assigned
// collector or management may complete a service.
func (s *Service) Complete(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.Service, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Service{}, err
	}
	if err := s.guardOrganization(identity, current); err != nil {
		return repository.Service{}, err
	}
	if err := s.guardAssignedCollector(identity, current); err != nil {
		return repository.Service{}, err
	}

	svc, err := s.repo.Transition(ctx, id, domain.StatusCompleted)
	if err != nil {
		s.logRejection(id, current.Status, domain.StatusInProgress, err)
		return repository.Service{}, err
	}

	s.log.ServiceTransition(svc.ID.String(), string(domain.StatusInProgress), string(svc.Status), identity.UserID().String())
	s.bus.Publish(ctx, events.ServiceCompleted{
		BaseEvent:      events.NewBaseEvent(),
		ServiceID:      svc.ID,
		ServiceNumber:  svc.ServiceNumber,
		OrganizationID: svc.OrganizationID,
		ClientID:       svc.ClientID,
		CollectorID:    collectorOrNil(svc),
	})

	return svc, nil
}

// LogCompletion records an immutable completion log against a service. The
// service must be in progress or completed and the caller must be its
// assigned collector (management may log on a collector's behalf).
func (s *Service) LogCompletion(ctx context.Context, identity httpkit.Identity, id uuid.UUID, req transport.LogCompletionRequest) (repository.ServiceLog, error) {
	if req.WasteAmount < 0 {
		return repository.ServiceLog{}, apperr.Validation("wasteAmount cannot be negative")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.ServiceLog{}, err
	}
	if err := s.guardOrganization(identity, current); err != nil {
		return repository.ServiceLog{}, err
	}
	if current.Status != domain.StatusInProgress && current.Status != domain.StatusCompleted {
		return repository.ServiceLog{}, apperr.InvalidTransition(fmt.Sprintf(
			"cannot log completion for service %s: current status is %s, required %s or %s",
			current.ServiceNumber, current.Status, domain.StatusInProgress, domain.StatusCompleted,
		))
	}
	if current.CollectorID == nil {
		return repository.ServiceLog{}, apperr.InvalidTransition(fmt.Sprintf(
			"service %s has no assigned collector", current.ServiceNumber,
		))
	}
	if err := s.guardAssignedCollector(identity, current); err != nil {
		return repository.ServiceLog{}, err
	}

	return s.repo.InsertLog(ctx, repository.LogParams{
		ServiceID:   id,
		CollectorID: *current.CollectorID,
		WasteAmount: req.WasteAmount,
		DocumentRef: req.DocumentRef,
		Notes:       req.Notes,
	})
}

// GetByID retrieves a single service, scoped to the caller's organization.
func (s *Service) GetByID(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Service{}, err
	}
	if err := s.guardOrganization(identity, svc); err != nil {
		return repository.Service{}, err
	}
	return svc, nil
}

// ListPending lists the organization's pending services awaiting approval.
func (s *Service) ListPending(ctx context.Context, identity httpkit.Identity) ([]repository.Service, error) {
	return s.repo.ListByOrganizationAndStatus(ctx, identity.OrganizationID(), domain.StatusPending)
}

// ListToday lists the organization's approved services scheduled for today.
func (s *Service) ListToday(ctx context.Context, identity httpkit.Identity) ([]repository.Service, error) {
	return s.repo.ListTodayApproved(ctx, identity.OrganizationID(), truncateToDay(s.now()))
}

// ListMine lists the services visible to the caller based on role: a
// collector sees their assignments, a client sees their own requests, and
// management sees the full filtered organization listing.
func (s *Service) ListMine(ctx context.Context, identity httpkit.Identity, req transport.ListServicesRequest) ([]repository.Service, error) {
	switch identity.Role() {
	case httpkit.RoleCollector:
		return s.repo.ListByCollector(ctx, identity.UserID())
	case httpkit.RoleClient:
		return s.repo.ListByClient(ctx, identity.UserID())
	default:
		return s.List(ctx, identity, req)
	}
}

// List retrieves the organization's services with optional status and date
// range filters.
func (s *Service) List(ctx context.Context, identity httpkit.Identity, req transport.ListServicesRequest) ([]repository.Service, error) {
	filter := repository.Filter{OrganizationID: identity.OrganizationID()}

	for _, raw := range req.Status {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("unknown status %q", raw))
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if req.StartDate != "" {
		start, err := time.Parse(transport.DateLayout, req.StartDate)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("startDate must use the %s format", transport.DateLayout))
		}
		filter.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(transport.DateLayout, req.EndDate)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("endDate must use the %s format", transport.DateLayout))
		}
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperr.Validation("endDate cannot be before startDate")
	}

	return s.repo.ListFiltered(ctx, filter)
}

// ListLogs retrieves completion logs for one service.
func (s *Service) ListLogs(ctx context.Context, identity httpkit.Identity, serviceID uuid.UUID) ([]repository.ServiceLog, error) {
	svc, err := s.repo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := s.guardOrganization(identity, svc); err != nil {
		return nil, err
	}
	return s.repo.ListLogsByService(ctx, serviceID)
}

// ListMyLogs retrieves the completion logs recorded by the calling collector.
func (s *Service) ListMyLogs(ctx context.Context, identity httpkit.Identity) ([]repository.ServiceLog, error) {
	return s.repo.ListLogsByCollector(ctx, identity.UserID())
}

// transition runs the common guard-then-CAS path for simple status moves.
func (s *Service) transition(ctx context.Context, identity httpkit.Identity, id uuid.UUID, to domain.Status) (repository.Service, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Service{}, err
	}
	if err := s.guardOrganization(identity, current); err != nil {
		return repository.Service{}, err
	}

	svc, err := s.repo.Transition(ctx, id, to)
	if err != nil {
		s.logRejection(id, current.Status, domain.RequiredSource(to), err)
		return repository.Service{}, err
	}

	s.log.ServiceTransition(svc.ID.String(), string(current.Status), string(svc.Status), identity.UserID().String())
	return svc, nil
}

// guardOrganization hides services outside the caller's organization. A
// cross-organization ID probe gets the same answer as a nonexistent one.
func (s *Service) guardOrganization(identity httpkit.Identity, svc repository.Service) error {
	if svc.OrganizationID != identity.OrganizationID() {
		return apperr.NotFound("service not found")
	}
	return nil
}

// guardAssignedCollector restricts collector-facing mutations to the
// assigned collector. Management bypasses the check.
func (s *Service) guardAssignedCollector(identity httpkit.Identity, svc repository.Service) error {
	if identity.HasRole(httpkit.RoleManagement) {
		return nil
	}
	if svc.CollectorID == nil || *svc.CollectorID != identity.UserID() {
		return apperr.InvalidRole(fmt.Sprintf("service %s is not assigned to the caller", svc.ServiceNumber))
	}
	return nil
}

func (s *Service) logRejection(id uuid.UUID, current, required domain.Status, err error) {
	if apperr.Is(err, apperr.KindInvalidTransition) {
		s.log.TransitionRejected(id.String(), string(current), string(required))
	}
}

func collectorOrNil(svc repository.Service) uuid.UUID {
	if svc.CollectorID == nil {
		return uuid.Nil
	}
	return *svc.CollectorID
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
