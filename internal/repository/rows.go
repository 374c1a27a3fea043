package repository

import (
	"time"

	"gorm.io/datatypes"

	"study-planner/internal/model"
)

// Rows are the gorm-facing shape of the model types. Nested documents are
// kept in JSON columns; all timestamps are stored in UTC.

type userRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Email       string `gorm:"size:255;index"`
	DisplayName string `gorm:"size:255"`
	TelegramID  *int64 `gorm:"uniqueIndex"`
	Preferences datatypes.JSONType[model.Preferences]
	Habits      datatypes.JSONType[model.HabitProfile]
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (userRow) TableName() string { return "users" }

func toUserRow(u model.User) userRow {
	row := userRow{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Preferences: datatypes.NewJSONType(u.Preferences),
		Habits:      datatypes.NewJSONType(u.Habits),
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
	}
	if u.TelegramID != 0 {
		id := u.TelegramID
		row.TelegramID = &id
	}
	return row
}

func (r userRow) toModel() model.User {
	u := model.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Preferences: r.Preferences.Data(),
		Habits:      r.Habits.Data(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.TelegramID != nil {
		u.TelegramID = *r.TelegramID
	}
	if u.Habits.PreferredSubjects == nil {
		u.Habits.PreferredSubjects = []string{}
	}
	return u
}

type assignmentRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"size:36;not null;index"`
	Title           string `gorm:"size:200;not null"`
	Subject         string `gorm:"size:255;index"`
	Description     string
	Topics          datatypes.JSONSlice[string]
	DueDate         time.Time `gorm:"not null;index"`
	EstimatedHours  float64
	ActualHours     float64
	Status          string `gorm:"size:20;not null;index"`
	Priority        string `gorm:"size:20;not null"`
	Difficulty      string `gorm:"size:20"`
	CompletedAt     *time.Time
	CompletionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (assignmentRow) TableName() string { return "assignments" }

func toAssignmentRow(a model.Assignment) assignmentRow {
	topics := a.Topics
	if topics == nil {
		topics = []string{}
	}
	return assignmentRow{
		ID:              a.ID,
		UserID:          a.UserID,
		Title:           a.Title,
		Subject:         a.Subject,
		Description:     a.Description,
		Topics:          datatypes.JSONSlice[string](topics),
		DueDate:         a.DueDate.UTC(),
		EstimatedHours:  a.EstimatedHours,
		ActualHours:     a.ActualHours,
		Status:          string(a.Status),
		Priority:        string(a.Priority),
		Difficulty:      string(a.Difficulty),
		CompletedAt:     utcPtr(a.CompletedAt),
		CompletionNotes: a.CompletionNotes,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}

func (r assignmentRow) toModel() model.Assignment {
	topics := []string(r.Topics)
	if topics == nil {
		topics = []string{}
	}
	return model.Assignment{
		ID:              r.ID,
		UserID:          r.UserID,
		Title:           r.Title,
		Subject:         r.Subject,
		Description:     r.Description,
		Topics:          topics,
		DueDate:         r.DueDate,
		EstimatedHours:  r.EstimatedHours,
		ActualHours:     r.ActualHours,
		Status:          model.AssignmentStatus(r.Status),
		Priority:        model.Priority(r.Priority),
		Difficulty:      model.Difficulty(r.Difficulty),
		CompletedAt:     r.CompletedAt,
		CompletionNotes: r.CompletionNotes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type planRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"size:36;not null;index"`
	PlanType       string `gorm:"size:20"`
	StartDate      time.Time
	EndDate        time.Time
	Schedule       datatypes.JSONType[model.Schedule]
	AIModel        string `gorm:"size:100"`
	Status         string `gorm:"size:20;not null;index"`
	AdherenceScore int
	ExcludeDays    datatypes.JSONType[[]time.Weekday]
	Version        int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (planRow) TableName() string { return "study_plans" }

func toPlanRow(p model.StudyPlan) planRow {
	return planRow{
		ID:             p.ID,
		UserID:         p.UserID,
		PlanType:       p.PlanType,
		StartDate:      p.StartDate.UTC(),
		EndDate:        p.EndDate.UTC(),
		Schedule:       datatypes.NewJSONType(p.Schedule),
		AIModel:        p.AIModel,
		Status:         string(p.Status),
		AdherenceScore: p.AdherenceScore,
		ExcludeDays:    datatypes.NewJSONType(p.ExcludeDays),
		Version:        p.Version,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
}

func (r planRow) toModel() model.StudyPlan {
	schedule := r.Schedule.Data()
	if schedule == nil {
		schedule = model.Schedule{}
	}
	return model.StudyPlan{
		ID:             r.ID,
		UserID:         r.UserID,
		PlanType:       r.PlanType,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Schedule:       schedule,
		AIModel:        r.AIModel,
		Status:         model.PlanStatus(r.Status),
		AdherenceScore: r.AdherenceScore,
		ExcludeDays:    r.ExcludeDays.Data(),
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type notificationRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"size:36;not null;index:idx_notification_lookup,priority:1"`
	Kind       string `gorm:"size:30;not null;index:idx_notification_lookup,priority:2"`
	Title      string `gorm:"size:255"`
	Message    string
	EntityType string `gorm:"size:30"`
	EntityID   string `gorm:"size:36;index:idx_notification_lookup,priority:3"`
	Read       bool   `gorm:"column:is_read;not null;default:false"`
	ReadAt     *time.Time
	CreatedAt  time.Time `gorm:"index"`
}

func (notificationRow) TableName() string { return "notifications" }

func toNotificationRow(n model.Notification) notificationRow {
	return notificationRow{
		ID:         n.ID,
		UserID:     n.UserID,
		Kind:       n.Kind,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.Read,
		ReadAt:     utcPtr(n.ReadAt),
		CreatedAt:  n.CreatedAt.UTC(),
	}
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:         r.ID,
		UserID:     r.UserID,
		Kind:       r.Kind,
		Title:      r.Title,
		Message:    r.Message,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Read:       r.Read,
		ReadAt:     r.ReadAt,
		CreatedAt:  r.CreatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
