package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
)

// AssignmentInput is the editable part of an assignment.
type AssignmentInput struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Subject        string           `json:"subject" validate:"required,max=100"`
	Description    string           `json:"description" validate:"max=2000"`
	Topics         []string         `json:"topics" validate:"max=50,dive,required,max=200"`
	DueDate        time.Time        `json:"dueDate" validate:"required"`
	EstimatedHours float64          `json:"estimatedHours" validate:"omitempty,min=0.5,max=100"`
	Difficulty     model.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type StatusUpdate struct {
	Status          model.AssignmentStatus `json:"status" validate:"required,oneof=pending in-progress completed"`
	ActualHours     *float64               `json:"actualHours" validate:"omitempty,min=0,max=1000"`
	CompletionNotes string                 `json:"completionNotes" validate:"max=2000"`
}

// AssignmentQuery filters List. Empty fields do not filter.
type AssignmentQuery struct {
	Status   model.AssignmentStatus `query:"status" json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority model.Priority         `query:"priority" json:"priority" validate:"omitempty,oneof=urgent high medium low"`
	Subject  string                 `query:"subject" json:"subject" validate:"max=100"`
}

type AssignmentService struct {
	assignments repository.AssignmentStore
	clock       planner.Clock
}

func NewAssignmentService(assignments repository.AssignmentStore, clock planner.Clock) *AssignmentService {
	return &AssignmentService{assignments: assignments, clock: clock}
}

func (s *AssignmentService) Create(ctx context.Context, userID string, in AssignmentInput) (model.Assignment, error) {
	if err := validate(in); err != nil {
		return model.Assignment{}, err
	}
	now := s.clock.Now()
	a := model.Assignment{
		UserID:    userID,
		Status:    model.StatusPending,
		CreatedAt: now,
	}
	s.apply(&a, in, now)
	a.Priority = planner.DerivePriority(a.DueDate, now)
	if err := s.assignments.Create(ctx, &a); err != nil {
		return model.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (s *AssignmentService) apply(a *model.Assignment, in AssignmentInput, now time.Time) {
	a.Title = strings.TrimSpace(in.Title)
	a.Subject = strings.TrimSpace(in.Subject)
	a.Description = strings.TrimSpace(in.Description)
	a.Topics = in.Topics
	if a.Topics == nil {
		a.Topics = []string{}
	}
	a.DueDate = in.DueDate
	a.EstimatedHours = in.EstimatedHours
	if a.EstimatedHours == 0 {
		a.EstimatedHours = model.DefaultEstimatedHours
	}
	a.Difficulty = in.Difficulty
	if a.Difficulty == "" {
		a.Difficulty = model.DifficultyMedium
	}
	a.UpdatedAt = now
}

func (s *AssignmentService) List(ctx context.Context, userID string, q AssignmentQuery) ([]model.Assignment, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	filter := repository.AssignmentFilter{UserID: userID, Priority: q.Priority, Subject: q.Subject}
	if q.Status != "" {
		filter.Statuses = []model.AssignmentStatus{q.Status}
	}
	out, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	return out, nil
}

// Open returns the user's pending and in-progress assignments, earliest due first.
func (s *AssignmentService) Open(ctx context.Context, userID string) ([]model.Assignment, error) {
	out, err := s.assignments.List(ctx, repository.AssignmentFilter{UserID: userID, Statuses: model.OpenStatuses})
	if err != nil {
		return nil, errors.Wrap(err, "listing open assignments")
	}
	return out, nil
}

// Get returns the assignment if it belongs to userID.
func (s *AssignmentService) Get(ctx context.Context, userID, id string) (model.Assignment, error) {
	a, err := s.assignments.Get(ctx, id)
	if err != nil {
		return model.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	if a.UserID != userID {
		return model.Assignment{}, ErrForbidden
	}
	return a, nil
}

// Update replaces the editable fields. Priority is derived again when the due
// date moves.
func (s *AssignmentService) Update(ctx context.Context, userID, id string, in AssignmentInput) (model.Assignment, error) {
	if err := validate(in); err != nil {
		return model.Assignment{}, err
	}
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Assignment{}, err
	}
	now := s.clock.Now()
	dueChanged := !a.DueDate.Equal(in.DueDate)
	s.apply(&a, in, now)
	if dueChanged {
		a.Priority = planner.DerivePriority(a.DueDate, now)
	}
	if err := s.assignments.Update(ctx, &a); err != nil {
		return model.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (s *AssignmentService) UpdateStatus(ctx context.Context, userID, id string, in StatusUpdate) (model.Assignment, error) {
	if err := validate(in); err != nil {
		return model.Assignment{}, err
	}
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Assignment{}, err
	}

	now := s.clock.Now()
	a.Status = in.Status
	if in.Status == model.StatusCompleted {
		if a.CompletedAt == nil {
			a.CompletedAt = &now
		}
		if in.ActualHours != nil {
			a.ActualHours = *in.ActualHours
		}
		if in.CompletionNotes != "" {
			a.CompletionNotes = strings.TrimSpace(in.CompletionNotes)
		}
	} else {
		a.CompletedAt = nil
	}
	a.UpdatedAt = now
	if err := s.assignments.Update(ctx, &a); err != nil {
		return model.Assignment{}, errors.Wrap(err, "updating assignment status")
	}
	return a, nil
}

func (s *AssignmentService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return nil
}
