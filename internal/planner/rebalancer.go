package planner

import (
	"context"
	"time"

	"study-planner/internal/model"
)

// Rebalancer regenerates the rest of a plan after sessions were missed.
type Rebalancer struct {
	synth *Synthesizer
	clock Clock
}

func NewRebalancer(synth *Synthesizer, clock Clock) *Rebalancer {
	return &Rebalancer{synth: synth, clock: clock}
}

// Missed returns the incomplete sessions of days strictly before today.
func Missed(schedule model.Schedule, today time.Time) []model.Session {
	today = DateOf(today)
	var missed []model.Session
	for _, day := range schedule {
		d, err := day.Day()
		if err != nil || !d.Before(today) {
			continue
		}
		for _, s := range day.Sessions {
			if !s.Completed {
				missed = append(missed, s)
			}
		}
	}
	return missed
}

// Rebalance re-synthesizes the plan from today to its end date when sessions
// were missed. Preferences, habits, assignments and syllabus come from base;
// its date range is replaced. Days before today are kept as they are.
//
// When nothing was missed, or the plan already ended, the stored schedule is
// returned untouched and the bool is false.
func (r *Rebalancer) Rebalance(ctx context.Context, plan model.StudyPlan, base PlanningRequest) (model.Schedule, bool, error) {
	today := DateOf(r.clock.Now())
	end := DateOf(plan.EndDate)
	if today.After(end) {
		return plan.Schedule, false, nil
	}
	if len(Missed(plan.Schedule, today)) == 0 {
		return plan.Schedule, false, nil
	}

	base.Start, base.End = today, end
	fresh, err := r.synth.Synthesize(ctx, base)
	if err != nil {
		return plan.Schedule, false, err
	}

	taken := make(map[string]bool)
	schedule := make(model.Schedule, 0, len(plan.Schedule)+len(fresh))
	for _, day := range plan.Schedule {
		if d, err := day.Day(); err == nil && !d.Before(today) {
			continue
		}
		schedule = append(schedule, day)
		for _, s := range day.Sessions {
			taken[s.ID] = true
		}
	}
	r.synth.ensureIDs(fresh, taken)
	return append(schedule, fresh...), true, nil
}
