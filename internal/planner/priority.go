package planner

import (
	"math"
	"time"

	"study-planner/internal/model"
)

// DaysRemaining is the number of days until due, rounded up.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// HoursRemaining is the number of hours until due, rounded up.
func HoursRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours()))
}

// DerivePriority classifies an assignment by the days left until it is due.
// It must be recomputed whenever the due date changes.
func DerivePriority(due, now time.Time) model.Priority {
	days := DaysRemaining(due, now)
	switch {
	case days < 0:
		return model.PriorityUrgent
	case days <= 3:
		return model.PriorityHigh
	case days <= 7:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
