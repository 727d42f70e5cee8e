package plots

import (
	"fmt"
	"strings"

	"github.com/landrecords/demarcation-backend/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDisputed   Status = "disputed"
	StatusOnHold     Status = "on_hold"
	StatusRejected   Status = "rejected"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusPending, StatusInProgress, StatusCompleted, StatusDisputed, StatusOnHold, StatusRejected,
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusDisputed, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusOnHold, StatusDisputed, StatusRejected},
	StatusOnHold:     {StatusInProgress, StatusCompleted, StatusRejected},
	StatusDisputed:   {StatusInProgress, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Open reports whether the plot still counts as outstanding work.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

// CanTransition reports whether a plot in from may move to to. Restating a
// non-terminal status is allowed and records activity without a transition.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	if from.Terminal() {
		return apperr.Conflict(fmt.Sprintf("Plot is %s and can no longer change status", from))
	}
	return apperr.Conflict(fmt.Sprintf("Cannot change status from %s to %s", from, to))
}
