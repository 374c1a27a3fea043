package planner

import (
	"math"
	"time"

	"study-planner/internal/model"
)

// Score is the rounded percentage of completed sessions, 0 for an empty schedule.
func Score(schedule model.Schedule) int {
	total, completed := schedule.SessionCount()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// SessionUpdate holds the fields a user may change on a session. Nil fields
// are left alone.
type SessionUpdate struct {
	Completed *bool
	Notes     *string
}

// UpdateSession returns a copy of schedule with the session changed. The input
// schedule is not modified.
func UpdateSession(schedule model.Schedule, sessionID string, upd SessionUpdate, now time.Time) (model.Schedule, error) {
	out := schedule.Clone()
	for i := range out {
		for j := range out[i].Sessions {
			s := &out[i].Sessions[j]
			if s.ID != sessionID {
				continue
			}
			if upd.Completed != nil {
				s.Completed = *upd.Completed
				if s.Completed {
					at := now
					s.CompletedAt = &at
				} else {
					s.CompletedAt = nil
				}
			}
			if upd.Notes != nil {
				s.Notes = *upd.Notes
			}
			return out, nil
		}
	}
	return schedule, ErrSessionNotFound
}
