package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"study-planner/internal/model"
)

type fakeOracle struct {
	text  string
	err   error
	calls int
	last  OracleRequest
}

func (f *fakeOracle) Generate(_ context.Context, req OracleRequest) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("date(%q): %v", s, err)
	}
	return d
}

func sess(id, start, end string, completed bool) model.Session {
	return model.Session{
		ID:        id,
		StartTime: start,
		EndTime:   end,
		Subject:   "Physics",
		Topic:     "Optics",
		Kind:      model.KindStudy,
		Completed: completed,
	}
}

func day(date string, sessions ...model.Session) model.DaySchedule {
	d, _ := time.Parse(model.DateLayout, date)
	if sessions == nil {
		sessions = []model.Session{}
	}
	return model.DaySchedule{Date: date, DayOfWeek: d.Weekday().String(), Sessions: sessions}
}

func oracleJSON(t *testing.T, days ...model.DaySchedule) string {
	t.Helper()
	data, err := json.Marshal(days)
	if err != nil {
		t.Fatalf("oracleJSON: %v", err)
	}
	return string(data)
}

// sequentialIDs returns an id generator yielding gen-1, gen-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}
