package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-planner/internal/model"
)

// AssignmentRepository handles CRUD for assignments.
type AssignmentRepository struct {
	db *gorm.DB
}

var _ AssignmentStore = (*AssignmentRepository)(nil)

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := toAssignmentRow(*a)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, id string) (model.Assignment, error) {
	var row assignmentRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.Assignment{}, notFound("find assignment", err)
	}
	return row.toModel(), nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	q := r.db.WithContext(ctx).Model(&assignmentRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", string(filter.Priority))
	}
	if filter.Subject != "" {
		q = q.Where("subject = ?", filter.Subject)
	}
	if filter.DueAfter != nil {
		q = q.Where("due_date >= ?", filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		q = q.Where("due_date <= ?", filter.DueBefore.UTC())
	}

	var rows []assignmentRow
	if err := q.Order("due_date ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	out := make([]model.Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	row := toAssignmentRow(*a)
	res := r.db.WithContext(ctx).Model(&assignmentRow{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"title":            row.Title,
		"subject":          row.Subject,
		"description":      row.Description,
		"topics":           row.Topics,
		"due_date":         row.DueDate,
		"estimated_hours":  row.EstimatedHours,
		"actual_hours":     row.ActualHours,
		"status":           row.Status,
		"priority":         row.Priority,
		"difficulty":       row.Difficulty,
		"completed_at":     row.CompletedAt,
		"completion_notes": row.CompletionNotes,
		"updated_at":       row.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&assignmentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
