package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wasteops_backend/internal/services/domain"
)

// Service represents one scheduled waste-collection work order.
type Service struct {
	ID                 uuid.UUID     `json:"id"`
	ServiceNumber      string        `json:"serviceNumber"`
	OrganizationID     uuid.UUID     `json:"organizationId"`
	ClientID           uuid.UUID     `json:"clientId"`
	LocationID         uuid.UUID     `json:"locationId"`
	ServiceTypeID      uuid.UUID     `json:"serviceTypeId"`
	WasteCategoryID    *uuid.UUID    `json:"wasteCategoryId,omitempty"`
	WasteSubcategoryID *uuid.UUID    `json:"wasteSubcategoryId,omitempty"`
	CollectorID        *uuid.UUID    `json:"collectorId,omitempty"`
	Status             domain.Status `json:"status"`
	StatusLabel        string        `json:"statusLabel"`
	ScheduledDate      time.Time     `json:"scheduledDate"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// ServiceLog is an immutable completion record attached to a service.
type ServiceLog struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"serviceId"`
	CollectorID uuid.UUID `json:"collectorId"`
	WasteAmount float64   `json:"wasteAmount"`
	DocumentRef *string   `json:"documentRef,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// CreateParams contains parameters for creating a service.
type CreateParams struct {
	OrganizationID     uuid.UUID
	ClientID           uuid.UUID
	LocationID         uuid.UUID
	ServiceTypeID      uuid.UUID
	WasteCategoryID    *uuid.UUID
	WasteSubcategoryID *uuid.UUID
	Status             domain.Status
	ScheduledDate      time.Time
}

// LogParams contains parameters for recording a completion log.
type LogParams struct {
	ServiceID   uuid.UUID
	CollectorID uuid.UUID
	WasteAmount float64
	DocumentRef *string
	Notes       *string
}

// Filter narrows the filtered service listing. An empty Statuses slice means
// no status filter; nil date bounds are open-ended. Conditions are
// AND-combined.
type Filter struct {
	OrganizationID uuid.UUID
	Statuses       []domain.Status
	StartDate      *time.Time
	EndDate        *time.Time
}

// Reader provides read operations for services.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Service, error)
	ListByOrganizationAndStatus(ctx context.Context, organizationID uuid.UUID, status domain.Status) ([]Service, error)
	ListTodayApproved(ctx context.Context, organizationID uuid.UUID, today time.Time) ([]Service, error)
	ListByCollector(ctx context.Context, collectorID uuid.UUID) ([]Service, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Service, error)
	ListFiltered(ctx context.Context, filter Filter) ([]Service, error)
	ExistsForSchedule(ctx context.Context, clientID, locationID uuid.UUID, scheduledDate time.Time) (bool, error)
}

// Writer provides write operations for services. Transition and
// AssignCollector are atomic compare-and-set updates: the precondition check
// and the state write happen in a single statement so concurrent callers
// cannot both succeed.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (Service, error)
	Transition(ctx context.Context, id uuid.UUID, to domain.Status) (Service, error)
	AssignCollector(ctx context.Context, id, collectorID uuid.UUID) (Service, error)
	InsertLog(ctx context.Context, params LogParams) (ServiceLog, error)
	ListLogsByService(ctx context.Context, serviceID uuid.UUID) ([]ServiceLog, error)
	ListLogsByCollector(ctx context.Context, collectorID uuid.UUID) ([]ServiceLog, error)
}

// Repository combines all service repository operations.
type Repository interface {
	Reader
	Writer
}
