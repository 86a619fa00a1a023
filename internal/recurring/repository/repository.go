// Package repository provides data access for recurring service schedules.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wasteops_backend/internal/recurring/domain"
	"wasteops_backend/platform/apperr"
)

// RecurringService is a template that generates concrete services on a cadence.
type RecurringService struct {
	ID                 uuid.UUID             `json:"id"`
	OrganizationID     uuid.UUID             `json:"organizationId"`
	ClientID           uuid.UUID             `json:"clientId"`
	LocationID         uuid.UUID             `json:"locationId"`
	ServiceTypeID      uuid.UUID             `json:"serviceTypeId"`
	WasteCategoryID    *uuid.UUID            `json:"wasteCategoryId,omitempty"`
	WasteSubcategoryID *uuid.UUID            `json:"wasteSubcategoryId,omitempty"`
	Frequency          domain.Frequency      `json:"frequency"`
	CustomDays         *int                  `json:"customDays,omitempty"`
	StartDate          time.Time             `json:"startDate"`
	EndDate            *time.Time            `json:"endDate,omitempty"`
	NextGenerationDate time.Time             `json:"nextGenerationDate"`
	Status             domain.ScheduleStatus `json:"status"`
	Notes              *string               `json:"notes,omitempty"`
	CreatedBy          uuid.UUID             `json:"createdBy"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// CreateParams contains parameters for creating a recurring schedule.
type CreateParams struct {
	OrganizationID     uuid.UUID
	ClientID           uuid.UUID
	LocationID         uuid.UUID
	ServiceTypeID      uuid.UUID
	WasteCategoryID    *uuid.UUID
	WasteSubcategoryID *uuid.UUID
	Frequency          domain.Frequency
	CustomDays         *int
	StartDate          time.Time
	EndDate            *time.Time
	Notes              *string
	CreatedBy          uuid.UUID
}

// Repository defines recurring schedule persistence.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (RecurringService, error)
	GetByID(ctx context.Context, id uuid.UUID) (RecurringService, error)
	// ListByOrganization retrieves an organization's schedules, optionally
	// narrowed to one status. An empty status means no filter.
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, status domain.ScheduleStatus) ([]RecurringService, error)
	// ListDueIDs returns the IDs of active schedules whose next generation
	// date falls on or before the horizon.
	ListDueIDs(ctx context.Context, horizon time.Time) ([]uuid.UUID, error)
	// SetStatus moves the schedule between states, enforcing the schedule
	// state machine with a compare-and-set update.
	SetStatus(ctx context.Context, id uuid.UUID, from, to domain.ScheduleStatus) (RecurringService, error)
	// WithScheduleLock runs fn with the schedule row locked FOR UPDATE in a
	// transaction. The generation path uses it so the duplicate check, the
	// service insert, and the pointer advance commit atomically.
	WithScheduleLock(ctx context.Context, id uuid.UUID, fn func(tx pgx.Tx, rec RecurringService) error) error
	// AdvanceNextDate moves the generation pointer inside the locked transaction.
	AdvanceNextDate(ctx context.Context, tx pgx.Tx, id uuid.UUID, next time.Time) error
}

const selectRecurring = `
	SELECT id, organization_id, client_id, location_id, service_type_id,
	       waste_category_id, waste_subcategory_id, frequency, custom_days,
	       start_date, end_date, next_generation_date, status, notes,
	       created_by, created_at, updated_at
	FROM recurring_services`

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new recurring schedules repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a new recurring schedule. The first generation date is the
// start date itself.
func (r *Repo) Create(ctx context.Context, params CreateParams) (RecurringService, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO recurring_services (organization_id, client_id, location_id, service_type_id,
		                                waste_category_id, waste_subcategory_id, frequency, custom_days,
		                                start_date, end_date, next_generation_date, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $9, $11, $12, $13)
		RETURNING id, organization_id, client_id, location_id, service_type_id,
		          waste_category_id, waste_subcategory_id, frequency, custom_days,
		          start_date, end_date, next_generation_date, status, notes,
		          created_by, created_at, updated_at`,
		params.OrganizationID, params.ClientID, params.LocationID, params.ServiceTypeID,
		params.WasteCategoryID, params.WasteSubcategoryID, string(params.Frequency), params.CustomDays,
		params.StartDate, params.EndDate, string(domain.ScheduleActive), params.Notes, params.CreatedBy,
	)

	rec, err := scanRecurring(row)
	if err != nil {
		return RecurringService{}, fmt.Errorf("insert recurring service: %w", err)
	}

	return rec, nil
}

// GetByID retrieves a recurring schedule by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (RecurringService, error) {
	rec, err := scanRecurring(r.pool.QueryRow(ctx, selectRecurring+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RecurringService{}, apperr.NotFound("recurring service not found")
		}
		return RecurringService{}, fmt.Errorf("get recurring service: %w", err)
	}

	return rec, nil
}

// ListByOrganization retrieves an organization's recurring schedules.
func (r *Repo) ListByOrganization(ctx context.Context, organizationID uuid.UUID, status domain.ScheduleStatus) ([]RecurringService, error) {
	rows, err := r.pool.Query(ctx, selectRecurring+`
		WHERE organization_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, organizationID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list recurring services: %w", err)
	}
	defer rows.Close()

	var results []RecurringService
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring service: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring services: %w", err)
	}

	return results, nil
}

// ListDueIDs returns due schedule IDs. Only IDs cross the batch boundary;
// each worker re-reads its row under lock before generating. Schedules whose
// pointer already passed their end date have nothing left to produce and are
// excluded rather than re-locked on every sweep.
func (r *Repo) ListDueIDs(ctx context.Context, horizon time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM recurring_services
		WHERE status = $1 AND next_generation_date <= $2
		  AND (end_date IS NULL OR next_generation_date <= end_date)
		ORDER BY next_generation_date ASC`, string(domain.ScheduleActive), horizon)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due schedule id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due schedules: %w", err)
	}

	return ids, nil
}

// SetStatus moves the schedule between states with a compare-and-set update.
// Zero matched rows means either a missing schedule or a state race; the
// re-read distinguishes the two and names both states in the rejection.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.ScheduleStatus) (RecurringService, error) {
	rec, err := scanRecurring(r.pool.QueryRow(ctx, `
		UPDATE recurring_services
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING id, organization_id, client_id, location_id, service_type_id,
		          waste_category_id, waste_subcategory_id, frequency, custom_days,
		          start_date, end_date, next_generation_date, status, notes,
		          created_by, created_at, updated_at`,
		id, string(to), string(from),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			current, getErr := r.GetByID(ctx, id)
			if getErr != nil {
				return RecurringService{}, getErr
			}
			return RecurringService{}, apperr.InvalidTransition(fmt.Sprintf(
				"cannot move recurring service to %s: current status is %s, required %s",
				to, current.Status, from,
			))
		}
		return RecurringService{}, fmt.Errorf("set recurring status: %w", err)
	}

	return rec, nil
}

// WithScheduleLock locks the schedule row FOR UPDATE and runs fn inside the
// transaction. fn's error rolls everything back.
func (r *Repo) WithScheduleLock(ctx context.Context, id uuid.UUID, fn func(tx pgx.Tx, rec RecurringService) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schedule lock: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := scanRecurring(tx.QueryRow(ctx, selectRecurring+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("recurring service not found")
		}
		return fmt.Errorf("lock recurring service: %w", err)
	}

	if err := fn(tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schedule lock: %w", err)
	}

	return nil
}

// AdvanceNextDate moves the generation pointer inside the locked transaction.
func (r *Repo) AdvanceNextDate(ctx context.Context, tx pgx.Tx, id uuid.UUID, next time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE recurring_services
		SET next_generation_date = $2, updated_at = now()
		WHERE id = $1`, id, next)
	if err != nil {
		return fmt.Errorf("advance next generation date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("recurring service not found")
	}

	return nil
}

func scanRecurring(row pgx.Row) (RecurringService, error) {
	var rec RecurringService
	var frequency, status string

	err := row.Scan(
		&rec.ID, &rec.OrganizationID, &rec.ClientID, &rec.LocationID, &rec.ServiceTypeID,
		&rec.WasteCategoryID, &rec.WasteSubcategoryID, &frequency, &rec.CustomDays,
		&rec.StartDate, &rec.EndDate, &rec.NextGenerationDate, &status, &rec.Notes,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return RecurringService{}, err
	}

	rec.Frequency = domain.Frequency(frequency)
	rec.Status = domain.ScheduleStatus(status)
	return rec, nil
}
