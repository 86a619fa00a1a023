// Package service contains the recurring schedule business logic and the
// generation engine that turns schedules into concrete services.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"wasteops_backend/internal/events"
	"wasteops_backend/internal/recurring/domain"
	"wasteops_backend/internal/recurring/repository"
	"wasteops_backend/internal/recurring/transport"
	svcdomain "wasteops_backend/internal/services/domain"
	servicesrepo "wasteops_backend/internal/services/repository"
	"wasteops_backend/platform/apperr"
	"wasteops_backend/platform/httpkit"
	"wasteops_backend/platform/logger"
)

// Generation never walks a single schedule further than this in one run.
// A year of daily occurrences is far beyond any sane backlog; the cap only
// exists so a misconfigured schedule cannot spin the sweep forever.
const maxStepsPerSchedule = 366

// batchConcurrency bounds parallel schedule workers during a sweep. Each
// worker holds a row lock and a pool connection.
const batchConcurrency = 4

// ServiceFactory creates concrete services from the recurrence engine.
type ServiceFactory interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, params servicesrepo.CreateParams) (servicesrepo.Service, error)
	ExistsForScheduleInTx(ctx context.Context, tx pgx.Tx, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error)
	ExistsForSchedule(ctx context.Context, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error)
}

// ContactResolver resolves the organization's notification recipient.
type ContactResolver interface {
	PrimaryContact(ctx context.Context, organizationID uuid.UUID) (uuid.UUID, error)
}

// Service implements recurring schedule management and generation.
type Service struct {
	repo     repository.Repository
	factory  ServiceFactory
	contacts ContactResolver
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new recurring service.
func New(repo repository.Repository, factory ServiceFactory, contacts ContactResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		factory:  factory,
		contacts: contacts,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Create registers a new recurring schedule. The first generation date is
// the start date.
func (s *Service) Create(ctx context.Context, identity httpkit.Identity, req transport.CreateRecurringRequest) (repository.RecurringService, error) {
	frequency, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		return repository.RecurringService{}, apperr.Validation(err.Error())
	}
	if frequency == domain.FrequencyCustom {
		if req.CustomDays == nil || *req.CustomDays <= 0 {
			return repository.RecurringService{}, apperr.Validation("customDays must be a positive integer for the custom frequency")
		}
	} else if req.CustomDays != nil {
		return repository.RecurringService{}, apperr.Validation("customDays is only valid with the custom frequency")
	}

	startDate, err := time.Parse(transport.DateLayout, req.StartDate)
	if err != nil {
		return repository.RecurringService{}, apperr.Validation(fmt.Sprintf("startDate must use the %s format", transport.DateLayout))
	}
	if startDate.Before(truncateToDay(s.now())) {
		return repository.RecurringService{}, apperr.Validation("startDate cannot be in the past")
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(transport.DateLayout, *req.EndDate)
		if err != nil {
			return repository.RecurringService{}, apperr.Validation(fmt.Sprintf("endDate must use the %s format", transport.DateLayout))
		}
		if !parsed.After(startDate) {
			return repository.RecurringService{}, apperr.Validation("endDate must be after startDate")
		}
		endDate = &parsed
	}

	return s.repo.Create(ctx, repository.CreateParams{
		OrganizationID:     identity.OrganizationID(),
		ClientID:           req.ClientID,
		LocationID:         req.LocationID,
		ServiceTypeID:      req.ServiceTypeID,
		WasteCategoryID:    req.WasteCategoryID,
		WasteSubcategoryID: req.WasteSubcategoryID,
		Frequency:          frequency,
		CustomDays:         req.CustomDays,
		StartDate:          startDate,
		EndDate:            endDate,
		Notes:              req.Notes,
		CreatedBy:          identity.UserID(),
	})
}

// GetByID retrieves a recurring schedule, scoped to the caller's organization.
func (s *Service) GetByID(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.RecurringService{}, err
	}
	if rec.OrganizationID != identity.OrganizationID() {
		return repository.RecurringService{}, apperr.NotFound("recurring service not found")
	}
	return rec, nil
}

// List retrieves the organization's recurring schedules, optionally
// narrowed to one status.
func (s *Service) List(ctx context.Context, identity httpkit.Identity, statusFilter string) ([]repository.RecurringService, error) {
	var status domain.ScheduleStatus
	if statusFilter != "" {
		parsed, err := domain.ParseScheduleStatus(statusFilter)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		status = parsed
	}

	return s.repo.ListByOrganization(ctx, identity.OrganizationID(), status)
}

// Pause suspends an active schedule and notifies the organization contact.
func (s *Service) Pause(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error) {
	rec, err := s.setStatus(ctx, identity, id, domain.ScheduleActive, domain.SchedulePaused)
	if err != nil {
		return repository.RecurringService{}, err
	}

	s.bus.Publish(ctx, events.RecurringServicePaused{
		BaseEvent:          events.NewBaseEvent(),
		RecurringServiceID: rec.ID,
		OrganizationID:     rec.OrganizationID,
		RecipientID:        s.resolveContact(ctx, rec.OrganizationID),
		PausedBy:           identity.UserID(),
	})

	return rec, nil
}

// Resume reactivates a paused schedule. No notification is sent.
func (s *Service) Resume(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error) {
	return s.setStatus(ctx, identity, id, domain.SchedulePaused, domain.ScheduleActive)
}

// Cancel stops a schedule from either the active or paused state and
// notifies the organization contact.
func (s *Service) Cancel(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error) {
	current, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return repository.RecurringService{}, err
	}
	rec, err := s.setStatus(ctx, identity, id, current.Status, domain.ScheduleCancelled)
	if err != nil {
		return repository.RecurringService{}, err
	}

	s.bus.Publish(ctx, events.RecurringServiceCancelled{
		BaseEvent:          events.NewBaseEvent(),
		RecurringServiceID: rec.ID,
		OrganizationID:     rec.OrganizationID,
		RecipientID:        s.resolveContact(ctx, rec.OrganizationID),
		CancelledBy:        identity.UserID(),
	})

	return rec, nil
}

// Reactivate brings a cancelled schedule back to active. The generation
// pointer is left where it was; the next sweep catches the schedule up.
func (s *Service) Reactivate(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.RecurringService, error) {
	return s.setStatus(ctx, identity, id, domain.ScheduleCancelled, domain.ScheduleActive)
}

// Generate runs one generation step for a single schedule, on demand.
func (s *Service) Generate(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (transport.GenerateOutcome, error) {
	if _, err := s.GetByID(ctx, identity, id); err != nil {
		return transport.GenerateOutcome{}, err
	}
	outcome, _, err := s.generateOne(ctx, id)
	return outcome, err
}

// GenerateDue sweeps all due schedules as of the given run date. Each
// schedule is walked forward until its pointer passes the horizon, and
// failures on one schedule never stop the others.
func (s *Service) GenerateDue(ctx context.Context, asOf time.Time, daysAhead int, dryRun bool) (transport.BatchResult, error) {
	horizon := truncateToDay(asOf).AddDate(0, 0, daysAhead)

	ids, err := s.repo.ListDueIDs(ctx, horizon)
	if err != nil {
		return transport.BatchResult{}, err
	}

	if dryRun {
		result, err := s.dryRunSweep(ctx, ids, horizon)
		if err != nil {
			return transport.BatchResult{}, err
		}
		s.log.GenerationRun(asOf.Format(transport.DateLayout), true, result.Generated, result.Skipped, result.Errored)
		return result, nil
	}

	var (
		group, groupCtx = errgroup.WithContext(ctx)
		results         = make([]transport.BatchResult, len(ids))
	)
	group.SetLimit(batchConcurrency)

	for i, id := range ids {
		group.Go(func() error {
			results[i] = s.sweepSchedule(groupCtx, id, horizon)
			return nil
		})
	}
	// Workers report per-schedule failures through their result slot.
	_ = group.Wait()

	result := transport.BatchResult{DryRun: false}
	for _, r := range results {
		result.Generated += r.Generated
		result.Skipped += r.Skipped
		result.Errored += r.Errored
		result.Errors = append(result.Errors, r.Errors...)
	}

	s.log.GenerationRun(asOf.Format(transport.DateLayout), false, result.Generated, result.Skipped, result.Errored)
	return result, nil
}

// sweepSchedule walks one schedule forward until its pointer passes the
// horizon or it stops producing.
func (s *Service) sweepSchedule(ctx context.Context, id uuid.UUID, horizon time.Time) transport.BatchResult {
	var result transport.BatchResult

	for step := 0; step < maxStepsPerSchedule; step++ {
		outcome, next, err := s.generateOne(ctx, id)
		if err != nil {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			return result
		}

		switch {
		case outcome.Generated:
			result.Generated++
		case outcome.Skipped:
			result.Skipped++
		}

		// A step that did not advance the pointer (schedule ended) or
		// pushed it past the horizon finishes this schedule.
		if next.IsZero() || next.After(horizon) {
			return result
		}
	}

	return result
}

// generateOne performs the atomic generation step: lock the schedule row,
// check for a duplicate, create the pending service, and advance the
// pointer, all in one transaction. The returned time is the new pointer, or
// zero when the pointer did not move.
func (s *Service) generateOne(ctx context.Context, id uuid.UUID) (transport.GenerateOutcome, time.Time, error) {
	var (
		outcome   transport.GenerateOutcome
		nextDate  time.Time
		generated *servicesrepo.Service
		orgID     uuid.UUID
	)

	err := s.repo.WithScheduleLock(ctx, id, func(tx pgx.Tx, rec repository.RecurringService) error {
		if rec.Status != domain.ScheduleActive {
			return apperr.InvalidTransition(fmt.Sprintf(
				"cannot generate from recurring service: current status is %s, required %s",
				rec.Status, domain.ScheduleActive,
			))
		}

		scheduledDate := rec.NextGenerationDate
		orgID = rec.OrganizationID

		if rec.EndDate != nil && scheduledDate.After(*rec.EndDate) {
			outcome = transport.GenerateOutcome{Skipped: true, SkipReason: "schedule ended"}
			return nil
		}

		next, err := domain.NextDate(scheduledDate, rec.Frequency, rec.CustomDays)
		if err != nil {
			return apperr.Configuration(err.Error())
		}

		exists, err := s.factory.ExistsForScheduleInTx(ctx, tx, rec.ClientID, rec.LocationID, scheduledDate)
		if err != nil {
			return err
		}
		if exists {
			outcome = transport.GenerateOutcome{Skipped: true, SkipReason: "service already exists for this date"}
		} else {
			svc, err := s.factory.CreateInTx(ctx, tx, servicesrepo.CreateParams{
				OrganizationID:     rec.OrganizationID,
				ClientID:           rec.ClientID,
				LocationID:         rec.LocationID,
				ServiceTypeID:      rec.ServiceTypeID,
				WasteCategoryID:    rec.WasteCategoryID,
				WasteSubcategoryID: rec.WasteSubcategoryID,
				Status:             svcdomain.StatusPending,
				ScheduledDate:      scheduledDate,
			})
			if err != nil {
				return err
			}
			generated = &svc
			outcome = transport.GenerateOutcome{
				Generated:     true,
				ServiceID:     &svc.ID,
				ServiceNumber: svc.ServiceNumber,
			}
		}

		// The pointer advances on duplicates too, otherwise the engine
		// would retry the same date forever.
		if err := s.repo.AdvanceNextDate(ctx, tx, rec.ID, next); err != nil {
			return err
		}
		nextDate = next
		return nil
	})
	if err != nil {
		return transport.GenerateOutcome{}, time.Time{}, err
	}

	if generated != nil {
		s.bus.Publish(ctx, events.RecurringServiceGenerated{
			BaseEvent:          events.NewBaseEvent(),
			RecurringServiceID: id,
			ServiceID:          generated.ID,
			ServiceNumber:      generated.ServiceNumber,
			OrganizationID:     orgID,
			ScheduledDate:      generated.ScheduledDate,
			RecipientID:        s.resolveContact(ctx, orgID),
		})
	}

	return outcome, nextDate, nil
}

// dryRunSweep simulates a sweep without locks or writes.
func (s *Service) dryRunSweep(ctx context.Context, ids []uuid.UUID, horizon time.Time) (transport.BatchResult, error) {
	result := transport.BatchResult{DryRun: true}

	for _, id := range ids {
		rec, err := s.repo.GetByID(ctx, id)
		if err != nil {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}

		date := rec.NextGenerationDate
		for step := 0; step < maxStepsPerSchedule; step++ {
			if date.After(horizon) {
				break
			}
			if rec.EndDate != nil && date.After(*rec.EndDate) {
				break
			}

			exists, err := s.factory.ExistsForSchedule(ctx, rec.ClientID, rec.LocationID, date)
			if err != nil {
				result.Errored++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
				break
			}
			if exists {
				result.Skipped++
			} else {
				result.Generated++
			}

			date, err = domain.NextDate(date, rec.Frequency, rec.CustomDays)
			if err != nil {
				result.Errored++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
				break
			}
		}
	}

	return result, nil
}

func (s *Service) setStatus(ctx context.Context, identity httpkit.Identity, id uuid.UUID, from, to domain.ScheduleStatus) (repository.RecurringService, error) {
	current, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return repository.RecurringService{}, err
	}
	if !domain.CanTransition(current.Status, to) {
		return repository.RecurringService{}, apperr.InvalidTransition(fmt.Sprintf(
			"cannot move recurring service to %s: current status is %s, required %s",
			to, current.Status, from,
		))
	}

	return s.repo.SetStatus(ctx, id, from, to)
}

// resolveContact finds the notification recipient for organization events.
// Resolution failures degrade to an empty recipient rather than failing the
// operation that triggered the notification.
func (s *Service) resolveContact(ctx context.Context, organizationID uuid.UUID) uuid.UUID {
	contactID, err := s.contacts.PrimaryContact(ctx, organizationID)
	if err != nil {
		s.log.DatabaseError("resolve primary contact", err)
		return uuid.Nil
	}
	return contactID
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
