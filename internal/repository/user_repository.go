package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-planner/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

var _ UserStore = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := toUserRow(*user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.User{}, notFound("find user", err)
	}
	return row.toModel(), nil
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&row).Error; err != nil {
		return model.User{}, notFound("find user by telegram id", err)
	}
	return row.toModel(), nil
}

// Update overwrites the profile, preferences, habits and Telegram link.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	row := toUserRow(*user)
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"email":        row.Email,
		"display_name": row.DisplayName,
		"telegram_id":  row.TelegramID,
		"preferences":  row.Preferences,
		"habits":       row.Habits,
		"updated_at":   row.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
