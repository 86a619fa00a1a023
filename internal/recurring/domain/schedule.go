// Package domain defines the recurrence schedule model: frequencies, the
// schedule state machine, and next-date arithmetic.
package domain

import (
	"fmt"
	"time"
)

// Frequency controls the interval between generated services.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// ParseFrequency validates a raw frequency value.
func ParseFrequency(raw string) (Frequency, error) {
	switch f := Frequency(raw); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", raw)
	}
}

// ScheduleStatus is the lifecycle state of a recurring schedule.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	SchedulePaused    ScheduleStatus = "paused"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// ParseScheduleStatus validates a raw schedule status value.
func ParseScheduleStatus(raw string) (ScheduleStatus, error) {
	switch s := ScheduleStatus(raw); s {
	case ScheduleActive, SchedulePaused, ScheduleCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown schedule status %q", raw)
	}
}

// scheduleTransitions maps each schedule state to the states reachable from
// it. Cancelled schedules can only be reactivated, never resumed or paused.
var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleActive:    {SchedulePaused, ScheduleCancelled},
	SchedulePaused:    {ScheduleActive, ScheduleCancelled},
	ScheduleCancelled: {ScheduleActive},
}

// CanTransition reports whether a schedule may move from one state to another.
func CanTransition(from, to ScheduleStatus) bool {
	for _, allowed := range scheduleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Interval days per frequency. Monthly uses a fixed 30-day stride so the
// generated cadence stays predictable regardless of calendar month length.
const (
	daysDaily   = 1
	daysWeekly  = 7
	daysMonthly = 30
)

// NextDate computes the generation date that follows from. customDays is
// only consulted for the custom frequency and must be positive there.
func NextDate(from time.Time, frequency Frequency, customDays *int) (time.Time, error) {
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, daysDaily), nil
	case FrequencyWeekly:
		return from.AddDate(0, 0, daysWeekly), nil
	case FrequencyMonthly:
		return from.AddDate(0, 0, daysMonthly), nil
	case FrequencyCustom:
		if customDays == nil || *customDays <= 0 {
			return time.Time{}, fmt.Errorf("custom frequency requires a positive customDays, got %v", customDays)
		}
		return from.AddDate(0, 0, *customDays), nil
	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", frequency)
	}
}
