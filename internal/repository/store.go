package repository

import (
	"context"
	"errors"
	"time"

	"study-planner/internal/model"
)

var (
	ErrNotFound = errors.New("repository: record not found")
	// ErrConflict is returned when a plan was changed by another writer
	// since it was read.
	ErrConflict = errors.New("repository: version conflict")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
	Update(ctx context.Context, user *model.User) error
	ListAll(ctx context.Context) ([]model.User, error)
}

// AssignmentFilter narrows List. Zero fields do not filter.
type AssignmentFilter struct {
	UserID    string
	Statuses  []model.AssignmentStatus
	Priority  model.Priority
	Subject   string
	DueAfter  *time.Time
	DueBefore *time.Time
}

// AssignmentStore lists assignments by due date, earliest first.
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	Get(ctx context.Context, id string) (model.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id string) error
}

type PlanFilter struct {
	UserID string
	Status model.PlanStatus
}

// PlanStore lists plans newest first. Update only succeeds when the stored
// version equals plan.Version; on success plan.Version is incremented.
type PlanStore interface {
	Create(ctx context.Context, plan *model.StudyPlan) error
	Get(ctx context.Context, id string) (model.StudyPlan, error)
	List(ctx context.Context, filter PlanFilter) ([]model.StudyPlan, error)
	Update(ctx context.Context, plan *model.StudyPlan) error
	Delete(ctx context.Context, id string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id string) (model.Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	// Exists reports whether a notification of kind about entityID was
	// created for the user at or after since.
	Exists(ctx context.Context, userID, kind, entityID string, since time.Time) (bool, error)
}

// Stores bundles one implementation of every store.
type Stores struct {
	Users         UserStore
	Assignments   AssignmentStore
	Plans         PlanStore
	Notifications NotificationStore
}
