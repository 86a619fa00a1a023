// Package transport defines request and response DTOs for the recurring
// services API.
package transport

import (
	"github.com/google/uuid"
)

// DateLayout is the wire format for schedule dates.
const DateLayout = "2006-01-02"

// CreateRecurringRequest is the payload for creating a recurring schedule.
type CreateRecurringRequest struct {
	ClientID           uuid.UUID  `json:"clientId" validate:"required"`
	LocationID         uuid.UUID  `json:"locationId" validate:"required"`
	ServiceTypeID      uuid.UUID  `json:"serviceTypeId" validate:"required"`
	WasteCategoryID    *uuid.UUID `json:"wasteCategoryId,omitempty"`
	WasteSubcategoryID *uuid.UUID `json:"wasteSubcategoryId,omitempty"`
	Frequency          string     `json:"frequency" validate:"required"`
	CustomDays         *int       `json:"customDays,omitempty"`
	StartDate          string     `json:"startDate" validate:"required"`
	EndDate            *string    `json:"endDate,omitempty"`
	Notes              *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// GenerateDueRequest carries the optional parameters for a batch generation run.
type GenerateDueRequest struct {
	// AsOf overrides the run date, mainly for replays. Defaults to today.
	AsOf string `form:"asOf"`
	// DaysAhead extends the horizon to include schedules due within N days.
	DaysAhead *int `form:"daysAhead"`
	// DryRun reports what would happen without writing anything.
	DryRun bool `form:"dryRun"`
}

// BatchResult summarizes a generation run.
type BatchResult struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errored   int      `json:"errored"`
	DryRun    bool     `json:"dryRun"`
	Errors    []string `json:"errors,omitempty"`
}

// GenerateOutcome reports a single schedule's generation step.
type GenerateOutcome struct {
	Generated     bool       `json:"generated"`
	Skipped       bool       `json:"skipped"`
	SkipReason    string     `json:"skipReason,omitempty"`
	ServiceID     *uuid.UUID `json:"serviceId,omitempty"`
	ServiceNumber string     `json:"serviceNumber,omitempty"`
}
