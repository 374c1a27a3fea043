package model

import "time"

const NotificationDeadline = "deadline"

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID         string
	UserID     string
	Kind       string
	Title      string
	Message    string
	EntityType string
	EntityID   string
	Read       bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}
