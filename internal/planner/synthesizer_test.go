package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner/internal/model"
)

func weekRequest(t *testing.T) PlanningRequest {
	return PlanningRequest{
		Start:       date(t, "2026-01-05"), // Monday
		End:         date(t, "2026-01-11"), // Sunday
		Preferences: model.DefaultPreferences(),
		Habits:      model.DefaultHabits(),
	}
}

func TestSynthesizeFallbackWeek(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("quota exceeded")}
	synth := NewSynthesizer(oracle)
	req := weekRequest(t)
	req.Preferences.StudyTimePreference = ""

	schedule, err := synth.Synthesize(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, schedule, 5)

	wantDates := []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"}
	for i, d := range schedule {
		assert.Equal(t, wantDates[i], d.Date)
		require.Len(t, d.Sessions, 1)
		s := d.Sessions[0]
		assert.Equal(t, model.KindStudy, s.Kind)
		assert.Equal(t, 2*time.Hour, s.Duration())
		assert.Equal(t, "09:00", s.StartTime)
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.Completed)
		assert.Equal(t, 2.0, d.PlannedHours())
	}
	for _, d := range schedule {
		assert.NotContains(t, []string{"2026-01-10", "2026-01-11"}, d.Date)
	}
	assert.Equal(t, 1, oracle.calls)
}

func TestSynthesizeFallbackNeverUsesWeekends(t *testing.T) {
	synth := NewSynthesizer(UnavailableOracle)
	req := PlanningRequest{
		Start:       date(t, "2026-02-01"),
		End:         date(t, "2026-03-31"),
		ExcludeDays: []time.Weekday{time.Wednesday},
		Preferences: model.Preferences{StudyTimePreference: model.TimeAfternoon},
	}

	schedule, err := synth.Synthesize(context.Background(), req)
	require.NoError(t, err)

	weekdays := 0
	for d := req.Start; !d.After(req.End); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday, time.Wednesday:
		default:
			weekdays++
		}
	}
	require.Len(t, schedule, weekdays)
	ids := make(map[string]bool)
	for _, d := range schedule {
		day, err := d.Day()
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, day.Weekday())
		assert.NotEqual(t, time.Sunday, day.Weekday())
		assert.NotEqual(t, time.Wednesday, day.Weekday())
		require.Len(t, d.Sessions, 1)
		assert.Equal(t, "14:00", d.Sessions[0].StartTime)
		assert.Equal(t, "16:00", d.Sessions[0].EndTime)
		assert.False(t, ids[d.Sessions[0].ID], "duplicate session id")
		ids[d.Sessions[0].ID] = true
	}
}

func TestSynthesizeInvalidRequest(t *testing.T) {
	oracle := &fakeOracle{}
	synth := NewSynthesizer(oracle)

	tests := []struct {
		name string
		req  PlanningRequest
	}{
		{name: "start after end", req: PlanningRequest{Start: date(t, "2026-01-10"), End: date(t, "2026-01-09")}},
		{name: "missing end", req: PlanningRequest{Start: date(t, "2026-01-10")}},
		{name: "assignment without due date", req: PlanningRequest{
			Start:       date(t, "2026-01-05"),
			End:         date(t, "2026-01-09"),
			Assignments: []AssignmentRef{{Title: "Essay"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := synth.Synthesize(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	assert.Zero(t, oracle.calls, "invalid requests must not reach the oracle")
}

func TestSynthesizeSingleDayRange(t *testing.T) {
	synth := NewSynthesizer(UnavailableOracle)
	req := PlanningRequest{Start: date(t, "2026-01-07"), End: date(t, "2026-01-07")}

	schedule, err := synth.Synthesize(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "Wednesday", schedule[0].DayOfWeek)
}

func TestSynthesizeParsesOracleOutput(t *testing.T) {
	assignmentID := "asg-1"
	body := oracleJSON(t,
		day("2026-01-04", sess("early", "09:00", "10:00", false)), // before range
		day("2026-01-05", sess("x1", "14:00", "15:00", false), model.Session{
			StartTime: "09:00", EndTime: "10:30", Subject: "Maths", Topic: "Limits",
			AssignmentID: &assignmentID, Kind: "Assignment", Completed: true,
		}),
		day("2026-01-07", sess("x1", "09:00", "10:00", false)),   // duplicate id
		day("2026-01-07", sess("", "11:00", "12:00", false)),     // duplicate date
		day("2026-01-12", sess("late", "09:00", "10:00", false)), // after range
	)
	oracle := &fakeOracle{text: "```json\n" + body + "\n```"}
	synth := NewSynthesizer(oracle, WithIDGenerator(sequentialIDs()))

	schedule, err := synth.Synthesize(context.Background(), weekRequest(t))
	require.NoError(t, err)
	require.Len(t, schedule, 7, "one entry per calendar date")

	start := date(t, "2026-01-05")
	for i, d := range schedule {
		want := start.AddDate(0, 0, i)
		assert.Equal(t, want.Format(model.DateLayout), d.Date)
		assert.Equal(t, want.Weekday().String(), d.DayOfWeek)
		assert.NotNil(t, d.Sessions)
	}

	monday := schedule[0].Sessions
	require.Len(t, monday, 2)
	assert.Equal(t, "09:00", monday[0].StartTime, "sessions are ordered by start time")
	assert.Equal(t, model.KindAssignment, monday[0].Kind)
	assert.False(t, monday[0].Completed, "fresh sessions start incomplete")
	require.NotNil(t, monday[0].AssignmentID)
	assert.Equal(t, assignmentID, *monday[0].AssignmentID)

	wednesday := schedule[2].Sessions
	require.Len(t, wednesday, 2, "duplicate dates are merged")
	assert.Empty(t, schedule[1].Sessions)

	ids := make(map[string]bool)
	for _, d := range schedule {
		for _, s := range d.Sessions {
			assert.NotEmpty(t, s.ID)
			assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
			ids[s.ID] = true
		}
	}
	assert.True(t, ids["x1"])
	assert.False(t, ids["early"])
	assert.False(t, ids["late"])
}

func TestSynthesizeIgnoresBrokenDaysOutsideRange(t *testing.T) {
	body := `[
		{"date": "2026-01-04", "sessions": [{"startTime": "11:00", "endTime": "10:00", "type": "party"}]},
		{"date": "2026-01-06", "sessions": [{"id": "ok", "startTime": "09:00", "endTime": "10:00", "subject": "Maths", "type": "study"}]}
	]`
	synth := NewSynthesizer(&fakeOracle{text: body})

	schedule, err := synth.Synthesize(context.Background(), weekRequest(t))
	require.NoError(t, err)
	require.Len(t, schedule, 7, "oracle answer kept, not the weekday fallback")
	require.Len(t, schedule[1].Sessions, 1)
	assert.Equal(t, "ok", schedule[1].Sessions[0].ID)
	assert.Equal(t, "Maths", schedule[1].Sessions[0].Subject)
}

func TestSynthesizeRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "prose", text: "Sorry, I cannot help with that."},
		{name: "object instead of array", text: `{"date": "2026-01-05", "sessions": []}`},
		{name: "truncated", text: `[{"date": "2026-01-05", "sessions": [{"startTime": "09:00"`},
		{name: "unparseable date", text: `[{"date": "next monday", "sessions": []}]`},
		{name: "unknown session type", text: `[{"date": "2026-01-05", "sessions": [{"startTime": "09:00", "endTime": "10:00", "type": "party"}]}]`},
		{name: "session ends before it starts", text: `[{"date": "2026-01-05", "sessions": [{"startTime": "11:00", "endTime": "10:00"}]}]`},
		{name: "bad clock", text: `[{"date": "2026-01-05", "sessions": [{"startTime": "9am", "endTime": "10:00"}]}]`},
		{name: "no day in range", text: `[{"date": "2025-12-01", "sessions": []}]`},
		{name: "empty array", text: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := NewSynthesizer(&fakeOracle{text: tt.text})
			schedule, err := synth.Synthesize(context.Background(), weekRequest(t))
			require.NoError(t, err)
			require.Len(t, schedule, 5, "fallback skeleton expected")
			assert.Equal(t, "Study Session", schedule[0].Sessions[0].Subject)
		})
	}
}

func TestBriefOrdersAssignmentsByPriority(t *testing.T) {
	req := weekRequest(t)
	req.Assignments = []AssignmentRef{
		{ID: "a-low", Title: "Reading log", Subject: "English", DueDate: date(t, "2026-02-01"), EstimatedHours: 1, Priority: model.PriorityLow},
		{ID: "a-urgent", Title: "Lab report", Subject: "Chemistry", DueDate: date(t, "2026-01-04"), EstimatedHours: 3, Topics: []string{"titration", "molarity"}, Priority: model.PriorityUrgent},
		{ID: "a-medium", Title: "Problem set", Subject: "Maths", DueDate: date(t, "2026-01-10"), EstimatedHours: 2, Priority: model.PriorityMedium},
	}
	req.Syllabus = []json.RawMessage{json.RawMessage(`{"unit":"Thermodynamics"}`)}
	oracle := &fakeOracle{err: errors.New("offline")}

	_, err := NewSynthesizer(oracle).Synthesize(context.Background(), req)
	require.NoError(t, err)

	prompt := oracle.last.Prompt()
	urgent := strings.Index(prompt, "Lab report")
	medium := strings.Index(prompt, "Problem set")
	low := strings.Index(prompt, "Reading log")
	require.True(t, urgent >= 0 && medium >= 0 && low >= 0, prompt)
	assert.Less(t, urgent, medium)
	assert.Less(t, medium, low)

	assert.Contains(t, prompt, "Available study hours per day: 4")
	assert.Contains(t, prompt, "Session duration: 45 minutes")
	assert.Contains(t, prompt, "Start: 2026-01-05")
	assert.Contains(t, prompt, "End: 2026-01-11")
	assert.Contains(t, prompt, "Topics: titration, molarity")
	assert.Contains(t, prompt, `{"unit":"Thermodynamics"}`)
	assert.Contains(t, prompt, "1. Prioritize assignments by deadline (urgent first)")
	assert.Equal(t, float32(0.5), oracle.last.Temperature)
	assert.Equal(t, int32(8192), oracle.last.MaxOutputTokens)
}
