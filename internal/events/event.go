// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"wasteops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Bus       = events.Bus
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Service Lifecycle Domain Events
// =============================================================================

// ServiceCreated is published when a new service request enters the system.
type ServiceCreated struct {
	BaseEvent
	ServiceID      uuid.UUID `json:"serviceId"`
	ServiceNumber  string    `json:"serviceNumber"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ClientID       uuid.UUID `json:"clientId"`
	ScheduledDate  time.Time `json:"scheduledDate"`
	CreatedBy      uuid.UUID `json:"createdBy"`
}

func (e ServiceCreated) EventName() string { return "services.service.created" }

// ServiceApproved is published when staff approves a pending service.
type ServiceApproved struct {
	BaseEvent
	ServiceID      uuid.UUID `json:"serviceId"`
	ServiceNumber  string    `json:"serviceNumber"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ClientID       uuid.UUID `json:"clientId"`
	ApprovedBy     uuid.UUID `json:"approvedBy"`
}

func (e ServiceApproved) EventName() string { return "services.service.approved" }

// ServiceRejected is published when staff cancels a pending service.
type ServiceRejected struct {
	BaseEvent
	ServiceID      uuid.UUID `json:"serviceId"`
	ServiceNumber  string    `json:"serviceNumber"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ClientID       uuid.UUID `json:"clientId"`
	RejectedBy     uuid.UUID `json:"rejectedBy"`
}

func (e ServiceRejected) EventName() string { return "services.service.rejected" }

// CollectorAssigned is published when a collector is assigned and the
// service moves to in progress.
type CollectorAssigned struct {
	BaseEvent
	ServiceID      uuid.UUID `json:"serviceId"`
	ServiceNumber  string    `json:"serviceNumber"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CollectorID    uuid.UUID `json:"collectorId"`
	AssignedBy     uuid.UUID `json:"assignedBy"`
}

func (e CollectorAssigned) EventName() string { return "services.collector.assigned" }

// ServiceCompleted is published when a collector completes a service.
type ServiceCompleted struct {
	BaseEvent
	ServiceID      uuid.UUID `json:"serviceId"`
	ServiceNumber  string    `json:"serviceNumber"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ClientID       uuid.UUID `json:"clientId"`
	CollectorID    uuid.UUID `json:"collectorId"`
}

func (e ServiceCompleted) EventName() string { return "services.service.completed" }

// =============================================================================
// Recurrence Domain Events
// =============================================================================

// RecurringServiceGenerated is published when the recurrence engine creates
// a service instance from a schedule.
type RecurringServiceGenerated struct {
	BaseEvent
	RecurringServiceID uuid.UUID `json:"recurringServiceId"`
	ServiceID          uuid.UUID `json:"serviceId"`
	ServiceNumber      string    `json:"serviceNumber"`
	OrganizationID     uuid.UUID `json:"organizationId"`
	ScheduledDate      time.Time `json:"scheduledDate"`
	RecipientID        uuid.UUID `json:"recipientId"`
}

func (e RecurringServiceGenerated) EventName() string { return "recurring.service.generated" }

// RecurringServicePaused is published when a recurring schedule is paused.
// The recipient is the organization's primary contact.
type RecurringServicePaused struct {
	BaseEvent
	RecurringServiceID uuid.UUID `json:"recurringServiceId"`
	OrganizationID     uuid.UUID `json:"organizationId"`
	RecipientID        uuid.UUID `json:"recipientId"`
	PausedBy           uuid.UUID `json:"pausedBy"`
}

func (e RecurringServicePaused) EventName() string { return "recurring.service.paused" }

// RecurringServiceCancelled is published when a recurring schedule is cancelled.
type RecurringServiceCancelled struct {
	BaseEvent
	RecurringServiceID uuid.UUID `json:"recurringServiceId"`
	OrganizationID     uuid.UUID `json:"organizationId"`
	RecipientID        uuid.UUID `json:"recipientId"`
	CancelledBy        uuid.UUID `json:"cancelledBy"`
}

func (e RecurringServiceCancelled) EventName() string { return "recurring.service.cancelled" }
