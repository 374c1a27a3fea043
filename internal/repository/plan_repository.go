package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-planner/internal/model"
)

// PlanRepository stores study plans with their schedule as a JSON document.
type PlanRepository struct {
	db *gorm.DB
}

var _ PlanStore = (*PlanRepository)(nil)

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *model.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	row := toPlanRow(*plan)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	plan.CreatedAt, plan.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *PlanRepository) Get(ctx context.Context, id string) (model.StudyPlan, error) {
	var row planRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.StudyPlan{}, notFound("find plan", err)
	}
	return row.toModel(), nil
}

func (r *PlanRepository) List(ctx context.Context, filter PlanFilter) ([]model.StudyPlan, error) {
	q := r.db.WithContext(ctx).Model(&planRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var rows []planRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	plans := make([]model.StudyPlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, row.toModel())
	}
	return plans, nil
}

// Update writes the plan only if nobody else updated it since it was read.
func (r *PlanRepository) Update(ctx context.Context, plan *model.StudyPlan) error {
	row := toPlanRow(*plan)
	db := r.db.WithContext(ctx)
	res := db.Model(&planRow{}).
		Where("id = ? AND version = ?", plan.ID, plan.Version).
		Updates(map[string]interface{}{
			"plan_type":       row.PlanType,
			"start_date":      row.StartDate,
			"end_date":        row.EndDate,
			"schedule":        row.Schedule,
			"ai_model":        row.AIModel,
			"status":          row.Status,
			"adherence_score": row.AdherenceScore,
			"exclude_days":    row.ExcludeDays,
			"version":         plan.Version + 1,
			"updated_at":      row.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&planRow{}).Where("id = ?", plan.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("check plan: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	plan.Version++
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&planRow{})
	if res.Error != nil {
		return fmt.Errorf("delete plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
