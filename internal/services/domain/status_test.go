package domain

import "testing"

func TestTransitionTableCompleteness(t *testing.T) {
	type pair struct {
		from Status
		to   Status
	}

	allowed := map[pair]bool{
		{StatusPending, StatusApproved}:     true,
		{StatusPending, StatusCancelled}:    true,
		{StatusApproved, StatusInProgress}:  true,
		{StatusInProgress, StatusCompleted}: true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[pair{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesHaveNoOutboundTransitions(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		for _, to := range AllStatuses() {
			if s.CanTransition(to) {
				t.Errorf("terminal status %s allows transition to %s", s, to)
			}
		}
	}
}

func TestRequiredSource(t *testing.T) {
	cases := map[Status]Status{
		StatusApproved:   StatusPending,
		StatusCancelled:  StatusPending,
		StatusInProgress: StatusApproved,
		StatusCompleted:  StatusInProgress,
	}
	for target, want := range cases {
		if got := RequiredSource(target); got != want {
			t.Errorf("RequiredSource(%s) = %s, want %s", target, got, want)
		}
	}
	if got := RequiredSource(StatusPending); got != "" {
		t.Errorf("RequiredSource(pending) = %s, want empty (no transition enters pending)", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		parsed, err := ParseStatus(string(s))
		if err != nil {
			t.Fatalf("ParseStatus(%s) returned error: %v", s, err)
		}
		if parsed != s {
			t.Fatalf("ParseStatus(%s) = %s", s, parsed)
		}
	}

	if _, err := ParseStatus("Pendiente"); err == nil {
		t.Error("expected display name to be rejected as a status code")
	}
}

func TestDisplayLabels(t *testing.T) {
	want := map[Status]string{
		StatusPending:    "Pendiente",
		StatusApproved:   "Aprobado",
		StatusInProgress: "En curso",
		StatusCompleted:  "Completado",
		StatusCancelled:  "Cancelado",
	}
	for s, label := range want {
		if got := s.Display(); got != label {
			t.Errorf("Display(%s) = %q, want %q", s, got, label)
		}
	}
}
