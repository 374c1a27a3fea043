package model

import "time"

// Priority is an urgency tier derived from the distance to the due date.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "pending"
	StatusInProgress AssignmentStatus = "in-progress"
	StatusCompleted  AssignmentStatus = "completed"
)

// OpenStatuses are the statuses of assignments that still need study time.
var OpenStatuses = []AssignmentStatus{StatusPending, StatusInProgress}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultEstimatedHours is used when an assignment is created without an estimate.
const DefaultEstimatedHours = 2.0

// Assignment is a piece of coursework with a deadline.
type Assignment struct {
	ID              string
	UserID          string
	Title           string
	Subject         string
	Description     string
	Topics          []string
	DueDate         time.Time
	EstimatedHours  float64
	ActualHours     float64
	Status          AssignmentStatus
	Priority        Priority
	Difficulty      Difficulty
	CompletedAt     *time.Time
	CompletionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
