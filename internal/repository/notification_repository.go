package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-planner/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

var _ NotificationStore = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	row := toNotificationRow(*n)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.CreatedAt = row.CreatedAt
	return nil
}

func (r *NotificationRepository) Get(ctx context.Context, id string) (model.Notification, error) {
	var row notificationRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.Notification{}, notFound("find notification", err)
	}
	return row.toModel(), nil
}

func (r *NotificationRepository) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var rows []notificationRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&notificationRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at.UTC()})
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) Exists(ctx context.Context, userID, kind, entityID string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("user_id = ? AND kind = ? AND entity_id = ? AND created_at >= ?", userID, kind, entityID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return count > 0, nil
}
