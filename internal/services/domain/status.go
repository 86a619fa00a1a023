// Package domain provides core business rules for the services bounded context.
package domain

import "fmt"

// Status is the closed enumeration of service work order lifecycle states.
// Identity in code is the Status value, never the display name: the localized
// label lives in the statuses reference table and is presentation data only.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// displayNames are the seeded localized labels for each status.
var displayNames = map[Status]string{
	StatusPending:    "Pendiente",
	StatusApproved:   "Aprobado",
	StatusInProgress: "En curso",
	StatusCompleted:  "Completado",
	StatusCancelled:  "Cancelado",
}

// transitions is the complete state machine. Any (from, to) pair absent
// here is rejected.
var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusCancelled},
	StatusApproved:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ParseStatus validates a stored status code.
func ParseStatus(code string) (Status, error) {
	s := Status(code)
	if _, ok := displayNames[s]; !ok {
		return "", fmt.Errorf("unknown service status %q", code)
	}
	return s, nil
}

// Display returns the localized label for the status.
func (s Status) Display() string {
	return displayNames[s]
}

// IsTerminal returns true when no transitions leave the status.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether moving from s to target is allowed.
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// RequiredSource returns the only status a service may be in for the
// transition into target to succeed. Every target state in this machine
// has exactly one legal source.
func RequiredSource(target Status) Status {
	switch target {
	case StatusApproved, StatusCancelled:
		return StatusPending
	case StatusInProgress:
		return StatusApproved
	case StatusCompleted:
		return StatusInProgress
	default:
		return ""
	}
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusInProgress, StatusCompleted, StatusCancelled}
}
