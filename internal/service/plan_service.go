package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
)

// maxPlanDays bounds the range of one generated plan.
const maxPlanDays = 366

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type GenerateInput struct {
	StartDate     string            `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate       string            `json:"endDate" validate:"required,datetime=2006-01-02"`
	PlanType      string            `json:"planType" validate:"omitempty,oneof=daily weekly monthly custom"`
	AssignmentIDs []string          `json:"assignmentIds" validate:"max=100"`
	Syllabus      []json.RawMessage `json:"syllabus" validate:"max=100"`
	ExcludeDays   []string          `json:"excludeDays" validate:"max=7,dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
}

type SessionInput struct {
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type StatusInput struct {
	Status model.PlanStatus `json:"status" validate:"required,oneof=active archived"`
}

// PlannedSession is one session of today together with the plan it belongs to.
type PlannedSession struct {
	PlanID  string
	Session model.Session
}

type PlanService struct {
	plans       repository.PlanStore
	users       repository.UserStore
	assignments repository.AssignmentStore
	synth       *planner.Synthesizer
	rebalancer  *planner.Rebalancer
	clock       planner.Clock
	aiModel     string
	log         logger.Logger
}

type PlanServiceOptions struct {
	Plans       repository.PlanStore
	Users       repository.UserStore
	Assignments repository.AssignmentStore
	Synthesizer *planner.Synthesizer
	Clock       planner.Clock
	// AIModel is recorded on every generated plan.
	AIModel string
	Logger  logger.Logger
}

func NewPlanService(opts PlanServiceOptions) *PlanService {
	return &PlanService{
		plans:       opts.Plans,
		users:       opts.Users,
		assignments: opts.Assignments,
		synth:       opts.Synthesizer,
		rebalancer:  planner.NewRebalancer(opts.Synthesizer, opts.Clock),
		clock:       opts.Clock,
		aiModel:     opts.AIModel,
		log:         opts.Logger,
	}
}

// Generate synthesizes and stores a new active plan for the user.
func (s *PlanService) Generate(ctx context.Context, userID string, in GenerateInput) (model.StudyPlan, error) {
	if err := validate(in); err != nil {
		return model.StudyPlan{}, err
	}
	start, _ := time.Parse(model.DateLayout, in.StartDate)
	end, _ := time.Parse(model.DateLayout, in.EndDate)
	if end.Before(start) {
		return model.StudyPlan{}, NewValidationError(nil, FieldError{Field: "endDate", Error: "endDate must not be before startDate"})
	}
	if end.Sub(start) >= maxPlanDays*24*time.Hour {
		return model.StudyPlan{}, NewValidationError(nil, FieldError{Field: "endDate", Error: "a plan can span at most 366 days"})
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "finding user")
	}
	assignments, err := s.openAssignments(ctx, userID, in.AssignmentIDs)
	if err != nil {
		return model.StudyPlan{}, err
	}

	req := s.request(user, assignments)
	req.Start, req.End = start, end
	req.Syllabus = in.Syllabus
	for _, name := range in.ExcludeDays {
		req.ExcludeDays = append(req.ExcludeDays, weekdays[name])
	}

	schedule, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "synthesizing schedule")
	}

	planType := in.PlanType
	if planType == "" {
		planType = "custom"
	}
	now := s.clock.Now()
	plan := model.StudyPlan{
		UserID:         userID,
		PlanType:       planType,
		StartDate:      start,
		EndDate:        end,
		Schedule:       schedule,
		AIModel:        s.aiModel,
		Status:         model.PlanActive,
		AdherenceScore: planner.Score(schedule),
		ExcludeDays:    req.ExcludeDays,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.plans.Create(ctx, &plan); err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "storing plan")
	}
	total, _ := schedule.SessionCount()
	s.log.Info("plan generated", plan.ID, len(schedule), total)
	return plan, nil
}

// openAssignments loads the user's open assignments, restricted to ids when given.
func (s *PlanService) openAssignments(ctx context.Context, userID string, ids []string) ([]model.Assignment, error) {
	open, err := s.assignments.List(ctx, repository.AssignmentFilter{UserID: userID, Statuses: model.OpenStatuses})
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	if len(ids) == 0 {
		return open, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = true
	}
	selected := open[:0]
	for _, a := range open {
		if wanted[a.ID] {
			selected = append(selected, a)
		}
	}
	return selected, nil
}

func (s *PlanService) request(user model.User, assignments []model.Assignment) planner.PlanningRequest {
	refs := make([]planner.AssignmentRef, 0, len(assignments))
	for _, a := range assignments {
		refs = append(refs, planner.RefOf(a))
	}
	return planner.PlanningRequest{
		Preferences: user.Preferences,
		Habits:      user.Habits,
		Assignments: refs,
	}
}

func (s *PlanService) List(ctx context.Context, userID string, status model.PlanStatus) ([]model.StudyPlan, error) {
	switch status {
	case "", model.PlanActive, model.PlanArchived:
	default:
		return nil, NewValidationError(nil, FieldError{Field: "status", Error: "status must be one of [active archived]"})
	}
	plans, err := s.plans.List(ctx, repository.PlanFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, errors.Wrap(err, "listing plans")
	}
	return plans, nil
}

// Get returns the plan if it belongs to userID.
func (s *PlanService) Get(ctx context.Context, userID, id string) (model.StudyPlan, error) {
	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "finding plan")
	}
	if plan.UserID != userID {
		return model.StudyPlan{}, ErrForbidden
	}
	return plan, nil
}

// UpdateSession applies a completion or notes change and recomputes adherence.
func (s *PlanService) UpdateSession(ctx context.Context, userID, planID, sessionID string, in SessionInput) (model.StudyPlan, error) {
	if err := validate(in); err != nil {
		return model.StudyPlan{}, err
	}
	plan, err := s.Get(ctx, userID, planID)
	if err != nil {
		return model.StudyPlan{}, err
	}
	now := s.clock.Now()
	schedule, err := planner.UpdateSession(plan.Schedule, sessionID, planner.SessionUpdate{Completed: in.Completed, Notes: in.Notes}, now)
	if err != nil {
		return model.StudyPlan{}, err
	}
	plan.Schedule = schedule
	plan.AdherenceScore = planner.Score(schedule)
	plan.UpdatedAt = now
	if err := s.plans.Update(ctx, &plan); err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "saving session update")
	}
	return plan, nil
}

// CompleteSession marks a session done in whichever active plan of the user
// contains it.
func (s *PlanService) CompleteSession(ctx context.Context, userID, sessionID string) (model.StudyPlan, error) {
	plans, err := s.List(ctx, userID, model.PlanActive)
	if err != nil {
		return model.StudyPlan{}, err
	}
	done := true
	for _, plan := range plans {
		for _, day := range plan.Schedule {
			for _, session := range day.Sessions {
				if session.ID == sessionID {
					return s.UpdateSession(ctx, userID, plan.ID, sessionID, SessionInput{Completed: &done})
				}
			}
		}
	}
	return model.StudyPlan{}, planner.ErrSessionNotFound
}

// Rebalance regenerates the remainder of an active plan after missed sessions.
// The bool is false when there was nothing to rebalance.
func (s *PlanService) Rebalance(ctx context.Context, userID, planID string) (model.StudyPlan, bool, error) {
	plan, err := s.Get(ctx, userID, planID)
	if err != nil {
		return model.StudyPlan{}, false, err
	}
	if plan.Status != model.PlanActive {
		return model.StudyPlan{}, false, NewValidationError(errors.New("only active plans can be rebalanced"))
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return model.StudyPlan{}, false, errors.Wrap(err, "finding user")
	}
	assignments, err := s.openAssignments(ctx, userID, nil)
	if err != nil {
		return model.StudyPlan{}, false, err
	}

	base := s.request(user, assignments)
	base.ExcludeDays = plan.ExcludeDays
	schedule, changed, err := s.rebalancer.Rebalance(ctx, plan, base)
	if err != nil {
		return model.StudyPlan{}, false, errors.Wrap(err, "rebalancing")
	}
	if !changed {
		return plan, false, nil
	}
	plan.Schedule = schedule
	plan.AdherenceScore = planner.Score(schedule)
	plan.UpdatedAt = s.clock.Now()
	if err := s.plans.Update(ctx, &plan); err != nil {
		return model.StudyPlan{}, false, errors.Wrap(err, "saving rebalanced plan")
	}
	s.log.Info("plan rebalanced", plan.ID)
	return plan, true, nil
}

func (s *PlanService) SetStatus(ctx context.Context, userID, planID string, in StatusInput) (model.StudyPlan, error) {
	if err := validate(in); err != nil {
		return model.StudyPlan{}, err
	}
	plan, err := s.Get(ctx, userID, planID)
	if err != nil {
		return model.StudyPlan{}, err
	}
	if plan.Status == in.Status {
		return plan, nil
	}
	plan.Status = in.Status
	plan.UpdatedAt = s.clock.Now()
	if err := s.plans.Update(ctx, &plan); err != nil {
		return model.StudyPlan{}, errors.Wrap(err, "updating plan status")
	}
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, userID, planID string) error {
	if _, err := s.Get(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, planID); err != nil {
		return errors.Wrap(err, "deleting plan")
	}
	return nil
}

// Today returns today's sessions across the user's active plans, by start time.
func (s *PlanService) Today(ctx context.Context, userID string) ([]PlannedSession, error) {
	plans, err := s.List(ctx, userID, model.PlanActive)
	if err != nil {
		return nil, err
	}
	today := planner.DateOf(s.clock.Now()).Format(model.DateLayout)
	var out []PlannedSession
	for _, plan := range plans {
		for _, day := range plan.Schedule {
			if day.Date != today {
				continue
			}
			for _, session := range day.Sessions {
				out = append(out, PlannedSession{PlanID: plan.ID, Session: session})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Session.StartTime < out[j].Session.StartTime
	})
	return out, nil
}
