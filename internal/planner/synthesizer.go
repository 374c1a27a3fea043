// Package planner builds study schedules. Scheduling decisions are delegated to
// a text-generation oracle; this package frames the request, checks the answer
// and falls back to a deterministic skeleton when the answer is unusable.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-planner/internal/model"
)

// Logger receives diagnostics about oracle failures.
type Logger interface {
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{}) {}

// Synthesizer turns planning requests into schedules.
type Synthesizer struct {
	oracle Oracle
	log    Logger
	newID  func() string
}

type Option func(*Synthesizer)

func WithLogger(l Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(f func() string) Option {
	return func(s *Synthesizer) {
		if f != nil {
			s.newID = f
		}
	}
}

func NewSynthesizer(oracle Oracle, opts ...Option) *Synthesizer {
	if oracle == nil {
		oracle = UnavailableOracle
	}
	s := &Synthesizer{
		oracle: oracle,
		log:    nopLogger{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns a schedule for the requested range. Oracle failures and
// malformed oracle output are absorbed by the fallback; only an invalid
// request is returned as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, req PlanningRequest) (model.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	text, err := s.oracle.Generate(ctx, req.Brief())
	if err != nil {
		s.log.Warn("schedule oracle failed, using fallback schedule", err)
		return s.fallback(req), nil
	}

	schedule, err := s.parse(text, DateOf(req.Start), DateOf(req.End))
	if err != nil {
		s.log.Warn("schedule oracle output rejected, using fallback schedule", err)
		return s.fallback(req), nil
	}
	return schedule, nil
}

// parse decodes oracle output into exactly one day per date in [start, end].
func (s *Synthesizer) parse(text string, start, end time.Time) (model.Schedule, error) {
	var days []model.DaySchedule
	if err := DecodeResponse(text, &days); err != nil {
		return nil, err
	}

	sessions := make(map[string][]model.Session)
	inRange := 0
	for _, day := range days {
		d, err := parseDate(day.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: day %q: %v", errMalformedOutput, day.Date, err)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		checked := make([]model.Session, 0, len(day.Sessions))
		for _, session := range day.Sessions {
			session, err := normalizeSession(session)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", errMalformedOutput, day.Date, err)
			}
			checked = append(checked, session)
		}
		inRange++
		key := d.Format(model.DateLayout)
		sessions[key] = append(sessions[key], checked...)
	}
	if inRange == 0 {
		return nil, fmt.Errorf("%w: no days inside %s..%s", errMalformedOutput,
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	var schedule model.Schedule
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		daySessions := sessions[key]
		if daySessions == nil {
			daySessions = []model.Session{}
		}
		sort.SliceStable(daySessions, func(i, j int) bool {
			return daySessions[i].StartTime < daySessions[j].StartTime
		})
		schedule = append(schedule, model.DaySchedule{
			Date:      key,
			DayOfWeek: d.Weekday().String(),
			Sessions:  daySessions,
		})
	}
	s.ensureIDs(schedule, make(map[string]bool))
	return schedule, nil
}

// ensureIDs gives every session an id not present in taken, and records them.
func (s *Synthesizer) ensureIDs(schedule model.Schedule, taken map[string]bool) {
	for i := range schedule {
		for j := range schedule[i].Sessions {
			session := &schedule[i].Sessions[j]
			for session.ID == "" || taken[session.ID] {
				session.ID = s.newID()
			}
			taken[session.ID] = true
		}
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil && len(raw) > len(model.DateLayout) {
		d, err = time.Parse(model.DateLayout, raw[:len(model.DateLayout)])
	}
	return d, err
}

func normalizeSession(s model.Session) (model.Session, error) {
	s.ID = strings.TrimSpace(s.ID)
	s.Kind = model.SessionKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	if s.Kind == "" {
		s.Kind = model.KindStudy
	}
	if !s.Kind.Valid() {
		return s, fmt.Errorf("session %q has unknown type %q", s.ID, s.Kind)
	}

	start, err := time.Parse(model.ClockLayout, strings.TrimSpace(s.StartTime))
	if err != nil {
		return s, fmt.Errorf("session %q start time: %v", s.ID, err)
	}
	end, err := time.Parse(model.ClockLayout, strings.TrimSpace(s.EndTime))
	if err != nil {
		return s, fmt.Errorf("session %q end time: %v", s.ID, err)
	}
	if !start.Before(end) {
		return s, fmt.Errorf("session %q ends at %s before it starts at %s", s.ID, s.EndTime, s.StartTime)
	}
	s.StartTime = start.Format(model.ClockLayout)
	s.EndTime = end.Format(model.ClockLayout)

	if s.AssignmentID != nil {
		id := strings.TrimSpace(*s.AssignmentID)
		if id == "" || strings.EqualFold(id, "null") {
			s.AssignmentID = nil
		} else {
			s.AssignmentID = &id
		}
	}
	s.Completed = false
	s.CompletedAt = nil
	return s, nil
}
