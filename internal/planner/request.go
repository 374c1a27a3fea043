package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"study-planner/internal/model"
)

const (
	scheduleTemperature     = 0.5
	scheduleMaxOutputTokens = 8192
)

// AssignmentRef is the part of an assignment the planner needs.
type AssignmentRef struct {
	ID             string
	Title          string
	Subject        string
	DueDate        time.Time
	EstimatedHours float64
	Topics         []string
	Priority       model.Priority
}

// RefOf extracts the planning view of an assignment.
func RefOf(a model.Assignment) AssignmentRef {
	return AssignmentRef{
		ID:             a.ID,
		Title:          a.Title,
		Subject:        a.Subject,
		DueDate:        a.DueDate,
		EstimatedHours: a.EstimatedHours,
		Topics:         a.Topics,
		Priority:       a.Priority,
	}
}

// PlanningRequest is the input of a synthesis. Start and End are calendar
// dates and both are included.
type PlanningRequest struct {
	Start       time.Time
	End         time.Time
	Preferences model.Preferences
	Habits      model.HabitProfile
	Assignments []AssignmentRef
	Syllabus    []json.RawMessage
	ExcludeDays []time.Weekday
}

func (r PlanningRequest) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if DateOf(r.Start).After(DateOf(r.End)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRequest,
			r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
	}
	for _, a := range r.Assignments {
		if a.DueDate.IsZero() {
			return fmt.Errorf("%w: assignment %q has no due date", ErrInvalidRequest, a.Title)
		}
	}
	return nil
}

func (r PlanningRequest) excluded(d time.Time) bool {
	for _, wd := range r.ExcludeDays {
		if d.Weekday() == wd {
			return true
		}
	}
	return false
}

// byPriority returns the assignments urgent first, earlier due date breaking ties.
func byPriority(refs []AssignmentRef) []AssignmentRef {
	out := append([]AssignmentRef(nil), refs...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

const scheduleContract = `Return ONLY a valid JSON array of days with this structure:
[
  {
    "date": "2026-01-15",
    "dayOfWeek": "Thursday",
    "sessions": [
      {
        "id": "unique-id",
        "startTime": "09:00",
        "endTime": "10:30",
        "subject": "Mathematics",
        "topic": "Calculus",
        "assignmentId": "assignment-id or null",
        "type": "study|assignment|revision|break",
        "completed": false,
        "completedAt": null,
        "notes": ""
      }
    ]
  }
]

Include one entry for every date in the schedule period. Generate a realistic, achievable schedule. Do not include markdown formatting.`

// Brief builds the oracle request for a schedule.
func (r PlanningRequest) Brief() OracleRequest {
	prefs, habits := r.Preferences, r.Habits

	profile := Section{Title: "User profile", Lines: []string{
		fmt.Sprintf("Available study hours per day: %g", prefs.StudyHoursPerDay),
		fmt.Sprintf("Preferred study time: %s", orUnknown(string(prefs.StudyTimePreference))),
		fmt.Sprintf("Session duration: %d minutes", prefs.SessionMinutes),
		fmt.Sprintf("Break duration: %d minutes", prefs.BreakMinutes),
		fmt.Sprintf("Peak productivity: %s", orUnknown(string(habits.PeakProductivityTime))),
		fmt.Sprintf("Average study hours: %g", habits.AverageStudyHours),
	}}

	period := Section{Title: "Schedule period", Lines: []string{
		"Start: " + r.Start.Format(model.DateLayout),
		"End: " + r.End.Format(model.DateLayout),
	}}
	if len(r.ExcludeDays) > 0 {
		names := make([]string, len(r.ExcludeDays))
		for i, wd := range r.ExcludeDays {
			names[i] = wd.String()
		}
		period.Lines = append(period.Lines, "No sessions on: "+strings.Join(names, ", "))
	}

	assignments := Section{Title: "Assignments (priority order)", Verbatim: true}
	for i, a := range byPriority(r.Assignments) {
		assignments.Lines = append(assignments.Lines,
			fmt.Sprintf("%d. %s", i+1, a.Title),
			"   Id: "+a.ID,
			"   Subject: "+a.Subject,
			"   Due: "+a.DueDate.Format(model.DateLayout),
			fmt.Sprintf("   Estimated Hours: %g", a.EstimatedHours),
			"   Topics: "+strings.Join(a.Topics, ", "),
			"   Priority: "+string(a.Priority),
		)
	}

	syllabus := Section{Title: "Syllabus topics", Verbatim: true}
	for _, raw := range r.Syllabus {
		if len(raw) == 0 {
			continue
		}
		syllabus.Lines = append(syllabus.Lines, string(raw))
	}

	return OracleRequest{
		Role:     "You are an expert study planner AI. Create a detailed, hour-by-hour study schedule.",
		Sections: []Section{profile, period, assignments, syllabus},
		Requirements: []string{
			"Prioritize assignments by deadline (urgent first)",
			"Add buffer time (1-2 days) before each deadline",
			"Schedule harder topics during peak productivity time",
			"Include breaks between sessions",
			"Balance workload across days",
			"Include revision sessions",
			"Avoid cramming - distribute work evenly",
		},
		OutputContract:  scheduleContract,
		Temperature:     scheduleTemperature,
		MaxOutputTokens: scheduleMaxOutputTokens,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}
