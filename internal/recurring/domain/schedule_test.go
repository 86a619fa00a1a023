package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate(t *testing.T) {
	five := 5
	cases := []struct {
		name       string
		frequency  Frequency
		customDays *int
		from       time.Time
		want       time.Time
	}{
		{"daily", FrequencyDaily, nil, day(2026, 3, 10), day(2026, 3, 11)},
		{"weekly", FrequencyWeekly, nil, day(2026, 3, 10), day(2026, 3, 17)},
		{"monthly is a fixed 30 day stride", FrequencyMonthly, nil, day(2026, 1, 31), day(2026, 3, 2)},
		{"monthly across february", FrequencyMonthly, nil, day(2026, 2, 1), day(2026, 3, 3)},
		{"custom", FrequencyCustom, &five, day(2026, 3, 10), day(2026, 3, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextDate(tc.from, tc.frequency, tc.customDays)
			if err != nil {
				t.Fatalf("NextDate: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
			}
		})
	}
}

func TestNextDateCustomRequiresPositiveDays(t *testing.T) {
	zero := 0
	if _, err := NextDate(day(2026, 3, 10), FrequencyCustom, nil); err == nil {
		t.Fatal("expected error for custom frequency without customDays")
	}
	if _, err := NextDate(day(2026, 3, 10), FrequencyCustom, &zero); err == nil {
		t.Fatal("expected error for custom frequency with zero customDays")
	}
}

func TestScheduleTransitions(t *testing.T) {
	allowed := []struct{ from, to ScheduleStatus }{
		{ScheduleActive, SchedulePaused},
		{ScheduleActive, ScheduleCancelled},
		{SchedulePaused, ScheduleActive},
		{SchedulePaused, ScheduleCancelled},
		{ScheduleCancelled, ScheduleActive},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to ScheduleStatus }{
		{ScheduleActive, ScheduleActive},
		{SchedulePaused, SchedulePaused},
		{ScheduleCancelled, SchedulePaused},
		{ScheduleCancelled, ScheduleCancelled},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}
