package plots

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusDisputed, true},
		{StatusPending, StatusOnHold, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusOnHold, true},
		{StatusOnHold, StatusInProgress, true},
		{StatusOnHold, StatusCompleted, true},
		{StatusInProgress, StatusDisputed, true},
		{StatusDisputed, StatusInProgress, true},
		{StatusDisputed, StatusCompleted, false},
		{StatusInProgress, StatusInProgress, true},
		{StatusCompleted, StatusCompleted, false},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusRejected, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// TestCompletedIsTerminal checks that nothing leaves completed.
func TestCompletedIsTerminal(t *testing.T) {
	for _, to := range AllStatuses {
		if CanTransition(StatusCompleted, to) {
			t.Errorf("completed -> %s must be rejected", to)
		}
		if err := checkTransition(StatusCompleted, to); err == nil {
			t.Errorf("expected error for completed -> %s", to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(" In_Progress "); err != nil || s != StatusInProgress {
		t.Errorf("expected in_progress, got %q (%v)", s, err)
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Errorf("expected error for unknown status")
	}
}

func TestDurationHours(t *testing.T) {
	start := mustTime(t, "2026-03-01T09:00:00Z")
	cases := map[string]float64{
		"2026-03-01T11:20:00Z": 2.3,
		"2026-03-01T09:00:00Z": 0,
		"2026-03-01T09:03:00Z": 0.1,
		"2026-03-02T09:00:00Z": 24,
	}
	for end, want := range cases {
		if got := DurationHours(start, mustTime(t, end)); got != want {
			t.Errorf("DurationHours(09:00, %s) = %v, want %v", end, got, want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0, 0); got != "0%" {
		t.Errorf("expected 0%%, got %s", got)
	}
	if got := Percent(2, 3); got != "67%" {
		t.Errorf("expected 67%%, got %s", got)
	}
}
