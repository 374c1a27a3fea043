package model

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type SessionKind string

const (
	KindStudy      SessionKind = "study"
	KindAssignment SessionKind = "assignment"
	KindRevision   SessionKind = "revision"
	KindBreak      SessionKind = "break"
)

func (k SessionKind) Valid() bool {
	switch k {
	case KindStudy, KindAssignment, KindRevision, KindBreak:
		return true
	}
	return false
}

type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// Session is one time block inside a day. Times are HH:MM on the owning day.
type Session struct {
	ID           string      `json:"id"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime"`
	Subject      string      `json:"subject"`
	Topic        string      `json:"topic"`
	AssignmentID *string     `json:"assignmentId"`
	Kind         SessionKind `json:"type"`
	Completed    bool        `json:"completed"`
	CompletedAt  *time.Time  `json:"completedAt"`
	Notes        string      `json:"notes"`
}

// Duration returns zero when either bound does not parse.
func (s Session) Duration() time.Duration {
	start, err := time.Parse(ClockLayout, s.StartTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse(ClockLayout, s.EndTime)
	if err != nil || !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// DaySchedule holds the sessions of one calendar date.
type DaySchedule struct {
	Date      string    `json:"date"`
	DayOfWeek string    `json:"dayOfWeek"`
	Sessions  []Session `json:"sessions"`
}

// Day parses Date as a UTC midnight.
func (d DaySchedule) Day() (time.Time, error) {
	return time.Parse(DateLayout, d.Date)
}

func (d DaySchedule) PlannedHours() float64 {
	var total time.Duration
	for _, s := range d.Sessions {
		if s.Kind == KindBreak {
			continue
		}
		total += s.Duration()
	}
	return total.Hours()
}

func (d DaySchedule) CompletedHours() float64 {
	var total time.Duration
	for _, s := range d.Sessions {
		if s.Kind == KindBreak || !s.Completed {
			continue
		}
		total += s.Duration()
	}
	return total.Hours()
}

// Schedule is the ordered day sequence of a plan.
type Schedule []DaySchedule

// SessionCount returns the total and completed number of sessions.
func (s Schedule) SessionCount() (total, completed int) {
	for _, day := range s {
		total += len(day.Sessions)
		for _, session := range day.Sessions {
			if session.Completed {
				completed++
			}
		}
	}
	return total, completed
}

// Clone deep-copies the day and session slices.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for i, day := range s {
		out[i] = day
		if day.Sessions != nil {
			out[i].Sessions = make([]Session, len(day.Sessions))
			copy(out[i].Sessions, day.Sessions)
		}
	}
	return out
}

// StudyPlan is a generated schedule owned by a single user.
type StudyPlan struct {
	ID             string
	UserID         string
	PlanType       string
	StartDate      time.Time
	EndDate        time.Time
	Schedule       Schedule
	AIModel        string
	Status         PlanStatus
	AdherenceScore int
	// ExcludeDays are weekdays the owner asked to keep free. Rebalancing honours them too.
	ExcludeDays []time.Weekday
	// Version increases on every stored update and guards concurrent writers.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}
