// Package transport defines request and response DTOs for the services API.
package transport

import (
	"github.com/google/uuid"
)

// DateLayout is the wire format for schedule dates. Services are scheduled
// by calendar day, not instant.
const DateLayout = "2006-01-02"

// CreateServiceRequest is the payload for creating a service request.
// Status is never accepted from the client; every service starts pending.
// Management callers may set approve to skip the separate approval step.
type CreateServiceRequest struct {
	ClientID           uuid.UUID  `json:"clientId" validate:"required"`
	LocationID         uuid.UUID  `json:"locationId" validate:"required"`
	ServiceTypeID      uuid.UUID  `json:"serviceTypeId" validate:"required"`
	WasteCategoryID    *uuid.UUID `json:"wasteCategoryId,omitempty"`
	WasteSubcategoryID *uuid.UUID `json:"wasteSubcategoryId,omitempty"`
	ScheduledDate      string     `json:"scheduledDate" validate:"required"`
	Approve            bool       `json:"approve,omitempty"`
}

// AssignCollectorRequest is the payload for assigning a collector.
type AssignCollectorRequest struct {
	CollectorID uuid.UUID `json:"collectorId" validate:"required"`
}

// LogCompletionRequest is the payload for recording a completion log.
// The completion timestamp is server-assigned and cannot be supplied.
type LogCompletionRequest struct {
	WasteAmount float64 `json:"wasteAmount" validate:"gte=0"`
	DocumentRef *string `json:"documentRef,omitempty" validate:"omitempty,max=512"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListServicesRequest carries the optional filters for the service listing.
// All filters are AND-combined; absent filters do not constrain the result.
type ListServicesRequest struct {
	Status    []string `form:"status"`
	StartDate string   `form:"startDate"`
	EndDate   string   `form:"endDate"`
}
