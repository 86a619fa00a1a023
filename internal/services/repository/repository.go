package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wasteops_backend/internal/services/domain"
	"wasteops_backend/platform/apperr"
)

const serviceNotFoundMessage = "service not found"

const selectService = `
	SELECT s.id, s.service_number, s.organization_id, s.client_id, s.location_id, s.service_type_id,
	       s.waste_category_id, s.waste_subcategory_id, s.collector_id, st.code, st.name,
	       s.scheduled_date, s.created_at, s.updated_at
	FROM services s
	JOIN service_statuses st ON st.id = s.status_id`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new services repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// statusRef resolves a status code to its reference row. A missing seeded
// status is a configuration error, never silently substituted.
func (r *Repo) statusRef(ctx context.Context, q pgx.Tx, code domain.Status) (uuid.UUID, string, error) {
	var id uuid.UUID
	var name string

	row := r.pool.QueryRow(ctx, `SELECT id, name FROM service_statuses WHERE code = $1`, string(code))
	if q != nil {
		row = q.QueryRow(ctx, `SELECT id, name FROM service_statuses WHERE code = $1`, string(code))
	}
	if err := row.Scan(&id, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", apperr.Configuration(fmt.Sprintf("status %q missing from reference data", code))
		}
		return uuid.Nil, "", fmt.Errorf("resolve status %q: %w", code, err)
	}

	return id, name, nil
}

// Create inserts a new service, assigning its service number from the
// organization-scoped counter inside the same transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Service, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Service{}, fmt.Errorf("begin create service: %w", err)
	}
	defer tx.Rollback(ctx)

	svc, err := r.CreateInTx(ctx, tx, params)
	if err != nil {
		return Service{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Service{}, fmt.Errorf("commit create service: %w", err)
	}

	return svc, nil
}

// CreateInTx inserts a new service inside a caller-owned transaction. The
// recurrence engine uses this so the duplicate check, the insert, and the
// schedule advance all commit or roll back together.
func (r *Repo) CreateInTx(ctx context.Context, tx pgx.Tx, params CreateParams) (Service, error) {
	statusID, statusName, err := r.statusRef(ctx, tx, params.Status)
	if err != nil {
		return Service{}, err
	}

	var seq int64
	err = tx.QueryRow(ctx, `
		INSERT INTO service_number_counters (organization_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (organization_id)
		DO UPDATE SET last_number = service_number_counters.last_number + 1
		RETURNING last_number`,
		params.OrganizationID,
	).Scan(&seq)
	if err != nil {
		return Service{}, fmt.Errorf("next service number: %w", err)
	}

	number := formatServiceNumber(params.OrganizationID, seq)

	var svc Service
	err = tx.QueryRow(ctx, `
		INSERT INTO services (service_number, organization_id, client_id, location_id, service_type_id,
		                      waste_category_id, waste_subcategory_id, status_id, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, service_number, organization_id, client_id, location_id, service_type_id,
		          waste_category_id, waste_subcategory_id, collector_id, scheduled_date, created_at, updated_at`,
		number, params.OrganizationID, params.ClientID, params.LocationID, params.ServiceTypeID,
		params.WasteCategoryID, params.WasteSubcategoryID, statusID, params.ScheduledDate,
	).Scan(
		&svc.ID, &svc.ServiceNumber, &svc.OrganizationID, &svc.ClientID, &svc.LocationID, &svc.ServiceTypeID,
		&svc.WasteCategoryID, &svc.WasteSubcategoryID, &svc.CollectorID, &svc.ScheduledDate, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return Service{}, fmt.Errorf("insert service: %w", err)
	}

	svc.Status = params.Status
	svc.StatusLabel = statusName
	return svc, nil
}

// formatServiceNumber builds a globally unique, human-readable number from
// the organization identity and its monotonic counter.
func formatServiceNumber(organizationID uuid.UUID, seq int64) string {
	raw := organizationID.String()
	return fmt.Sprintf("SRV-%s-%06d", raw[:8], seq)
}

// GetByID retrieves a service by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Service, error) {
	row := r.pool.QueryRow(ctx, selectService+` WHERE s.id = $1`, id)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("get service by id: %w", err)
	}

	return svc, nil
}

// Transition performs an atomic compare-and-set status change. The update
// only matches when the service currently sits in the single legal source
// state for the target, so exactly one of two racing callers can win.
func (r *Repo) Transition(ctx context.Context, id uuid.UUID, to domain.Status) (Service, error) {
	required := domain.RequiredSource(to)
	if required == "" {
		return Service{}, apperr.InvalidTransition(fmt.Sprintf("no transition enters status %q", to))
	}

	targetID, targetName, err := r.statusRef(ctx, nil, to)
	if err != nil {
		return Service{}, err
	}

	var svc Service
	err = r.pool.QueryRow(ctx, `
		UPDATE services s
		SET status_id = $2, updated_at = now()
		FROM service_statuses cur
		WHERE s.id = $1 AND cur.id = s.status_id AND cur.code = $3
		RETURNING s.id, s.service_number, s.organization_id, s.client_id, s.location_id, s.service_type_id,
		          s.waste_category_id, s.waste_subcategory_id, s.collector_id, s.scheduled_date, s.created_at, s.updated_at`,
		id, targetID, string(required),
	).Scan(
		&svc.ID, &svc.ServiceNumber, &svc.OrganizationID, &svc.ClientID, &svc.LocationID, &svc.ServiceTypeID,
		&svc.WasteCategoryID, &svc.WasteSubcategoryID, &svc.CollectorID, &svc.ScheduledDate, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, r.transitionFailure(ctx, id, to, required)
		}
		return Service{}, fmt.Errorf("transition service: %w", err)
	}

	svc.Status = to
	svc.StatusLabel = targetName
	return svc, nil
}

// AssignCollector atomically assigns the collector and moves the service
// from approved to in progress.
func (r *Repo) AssignCollector(ctx context.Context, id, collectorID uuid.UUID) (Service, error) {
	targetID, targetName, err := r.statusRef(ctx, nil, domain.StatusInProgress)
	if err != nil {
		return Service{}, err
	}

	var svc Service
	err = r.pool.QueryRow(ctx, `
		UPDATE services s
		SET status_id = $2, collector_id = $3, updated_at = now()
		FROM service_statuses cur
		WHERE s.id = $1 AND cur.id = s.status_id AND cur.code = $4
		RETURNING s.id, s.service_number, s.organization_id, s.client_id, s.location_id, s.service_type_id,
		          s.waste_category_id, s.waste_subcategory_id, s.collector_id, s.scheduled_date, s.created_at, s.updated_at`,
		id, targetID, collectorID, string(domain.StatusApproved),
	).Scan(
		&svc.ID, &svc.ServiceNumber, &svc.OrganizationID, &svc.ClientID, &svc.LocationID, &svc.ServiceTypeID,
		&svc.WasteCategoryID, &svc.WasteSubcategoryID, &svc.CollectorID, &svc.ScheduledDate, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, r.transitionFailure(ctx, id, domain.StatusInProgress, domain.StatusApproved)
		}
		return Service{}, fmt.Errorf("assign collector: %w", err)
	}

	svc.Status = domain.StatusInProgress
	svc.StatusLabel = targetName
	return svc, nil
}

// transitionFailure distinguishes a missing service from a precondition
// violation, and names both states in the rejection.
func (r *Repo) transitionFailure(ctx context.Context, id uuid.UUID, to, required domain.Status) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperr.InvalidTransition(fmt.Sprintf(
		"cannot move service %s to %s: current status is %s, required %s",
		current.ServiceNumber, to, current.Status, required,
	))
}

// InsertLog records a completion log. The completion timestamp is assigned
// by the database, never taken from the caller.
func (r *Repo) InsertLog(ctx context.Context, params LogParams) (ServiceLog, error) {
	var log ServiceLog
	err := r.pool.QueryRow(ctx, `
		INSERT INTO service_logs (service_id, collector_id, waste_amount, document_ref, notes, completed_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, service_id, collector_id, waste_amount, document_ref, notes, completed_at`,
		params.ServiceID, params.CollectorID, params.WasteAmount, params.DocumentRef, params.Notes,
	).Scan(&log.ID, &log.ServiceID, &log.CollectorID, &log.WasteAmount, &log.DocumentRef, &log.Notes, &log.CompletedAt)
	if err != nil {
		return ServiceLog{}, fmt.Errorf("insert service log: %w", err)
	}

	return log, nil
}

// ListLogsByService retrieves completion logs for a service, newest first.
func (r *Repo) ListLogsByService(ctx context.Context, serviceID uuid.UUID) ([]ServiceLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_id, collector_id, waste_amount, document_ref, notes, completed_at
		FROM service_logs
		WHERE service_id = $1
		ORDER BY completed_at DESC`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list service logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

// ListLogsByCollector retrieves completion logs recorded by a collector, newest first.
func (r *Repo) ListLogsByCollector(ctx context.Context, collectorID uuid.UUID) ([]ServiceLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_id, collector_id, waste_amount, document_ref, notes, completed_at
		FROM service_logs
		WHERE collector_id = $1
		ORDER BY completed_at DESC`, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list collector logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

// ListByOrganizationAndStatus retrieves an organization's services in one
// status, newest scheduled first.
func (r *Repo) ListByOrganizationAndStatus(ctx context.Context, organizationID uuid.UUID, status domain.Status) ([]Service, error) {
	rows, err := r.pool.Query(ctx, selectService+`
		WHERE s.organization_id = $1 AND st.code = $2
		ORDER BY s.scheduled_date DESC`, organizationID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list services by status: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListTodayApproved retrieves approved services scheduled for the given day.
func (r *Repo) ListTodayApproved(ctx context.Context, organizationID uuid.UUID, today time.Time) ([]Service, error) {
	rows, err := r.pool.Query(ctx, selectService+`
		WHERE s.organization_id = $1 AND st.code = $2 AND s.scheduled_date = $3
		ORDER BY s.scheduled_date ASC`, organizationID, string(domain.StatusApproved), today)
	if err != nil {
		return nil, fmt.Errorf("list today services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListByCollector retrieves every service ever assigned to the collector,
// newest scheduled first.
func (r *Repo) ListByCollector(ctx context.Context, collectorID uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, selectService+`
		WHERE s.collector_id = $1
		ORDER BY s.scheduled_date DESC`, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list collector services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListByClient retrieves a client's services, newest scheduled first.
func (r *Repo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, selectService+`
		WHERE s.client_id = $1
		ORDER BY s.scheduled_date DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ListFiltered retrieves services matching the AND-combined filter. An empty
// status set means no status filter, not an empty result.
func (r *Repo) ListFiltered(ctx context.Context, filter Filter) ([]Service, error) {
	var statusCodes []string
	for _, s := range filter.Statuses {
		statusCodes = append(statusCodes, string(s))
	}

	rows, err := r.pool.Query(ctx, selectService+`
		WHERE s.organization_id = $1
			AND (cardinality($2::text[]) = 0 OR st.code = ANY($2))
			AND ($3::date IS NULL OR s.scheduled_date >= $3)
			AND ($4::date IS NULL OR s.scheduled_date <= $4)
		ORDER BY s.scheduled_date DESC`,
		filter.OrganizationID, statusCodes, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("list filtered services: %w", err)
	}
	defer rows.Close()

	return scanServices(rows)
}

// ExistsForSchedule checks whether a service already exists for the
// (client, location, scheduled date) tuple. Used by the recurrence engine's
// duplicate-generation guard.
func (r *Repo) ExistsForSchedule(ctx context.Context, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error) {
	return existsForSchedule(ctx, r.pool, clientID, locationID, scheduledDate)
}

// ExistsForScheduleInTx is the duplicate check inside the recurrence
// engine's locked generation transaction.
func (r *Repo) ExistsForScheduleInTx(ctx context.Context, tx pgx.Tx, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error) {
	return existsForSchedule(ctx, tx, clientID, locationID, scheduledDate)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func existsForSchedule(ctx context.Context, q rowQuerier, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM services
			WHERE client_id = $1 AND location_id = $2 AND scheduled_date = $3
		)`, clientID, locationID, scheduledDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check service exists: %w", err)
	}

	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (Service, error) {
	var svc Service
	var code, name string

	err := row.Scan(
		&svc.ID, &svc.ServiceNumber, &svc.OrganizationID, &svc.ClientID, &svc.LocationID, &svc.ServiceTypeID,
		&svc.WasteCategoryID, &svc.WasteSubcategoryID, &svc.CollectorID, &code, &name,
		&svc.ScheduledDate, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return Service{}, err
	}

	svc.Status = domain.Status(code)
	svc.StatusLabel = name
	return svc, nil
}

// scanServices is a helper to scan multiple rows into a Service slice.
func scanServices(rows pgx.Rows) ([]Service, error) {
	var results []Service

	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		results = append(results, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return results, nil
}

func scanLogs(rows pgx.Rows) ([]ServiceLog, error) {
	var results []ServiceLog

	for rows.Next() {
		var log ServiceLog
		err := rows.Scan(&log.ID, &log.ServiceID, &log.CollectorID, &log.WasteAmount, &log.DocumentRef, &log.Notes, &log.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("scan service log: %w", err)
		}
		results = append(results, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service logs: %w", err)
	}

	return results, nil
}
