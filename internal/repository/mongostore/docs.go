package mongostore

import (
	"time"

	"study-planner/internal/model"
)

type preferencesDoc struct {
	StudyHoursPerDay     float64 `bson:"study_hours_per_day"`
	StudyTimePreference  string  `bson:"study_time_preference"`
	SessionMinutes       int     `bson:"session_minutes"`
	BreakMinutes         int     `bson:"break_minutes"`
	NotificationsEnabled bool    `bson:"notifications_enabled"`
}

type habitsDoc struct {
	PeakProductivityTime string     `bson:"peak_productivity_time"`
	AverageStudyHours    float64    `bson:"average_study_hours"`
	Consistency          int        `bson:"consistency"`
	Streak               int        `bson:"streak"`
	PreferredSubjects    []string   `bson:"preferred_subjects"`
	LastAnalyzedAt       *time.Time `bson:"last_analyzed_at,omitempty"`
}

type userDoc struct {
	ID          string         `bson:"_id"`
	Email       string         `bson:"email"`
	DisplayName string         `bson:"display_name"`
	TelegramID  int64          `bson:"telegram_id,omitempty"`
	Preferences preferencesDoc `bson:"preferences"`
	Habits      habitsDoc      `bson:"habits"`
	CreatedAt   time.Time      `bson:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at"`
}

func toUserDoc(u model.User) userDoc {
	p, h := u.Preferences, u.Habits
	return userDoc{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		TelegramID:  u.TelegramID,
		Preferences: preferencesDoc{
			StudyHoursPerDay:     p.StudyHoursPerDay,
			StudyTimePreference:  string(p.StudyTimePreference),
			SessionMinutes:       p.SessionMinutes,
			BreakMinutes:         p.BreakMinutes,
			NotificationsEnabled: p.NotificationsEnabled,
		},
		Habits: habitsDoc{
			PeakProductivityTime: string(h.PeakProductivityTime),
			AverageStudyHours:    h.AverageStudyHours,
			Consistency:          h.Consistency,
			Streak:               h.Streak,
			PreferredSubjects:    h.PreferredSubjects,
			LastAnalyzedAt:       h.LastAnalyzedAt,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) toModel() model.User {
	subjects := d.Habits.PreferredSubjects
	if subjects == nil {
		subjects = []string{}
	}
	return model.User{
		ID:          d.ID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		TelegramID:  d.TelegramID,
		Preferences: model.Preferences{
			StudyHoursPerDay:     d.Preferences.StudyHoursPerDay,
			StudyTimePreference:  model.TimeBand(d.Preferences.StudyTimePreference),
			SessionMinutes:       d.Preferences.SessionMinutes,
			BreakMinutes:         d.Preferences.BreakMinutes,
			NotificationsEnabled: d.Preferences.NotificationsEnabled,
		},
		Habits: model.HabitProfile{
			PeakProductivityTime: model.TimeBand(d.Habits.PeakProductivityTime),
			AverageStudyHours:    d.Habits.AverageStudyHours,
			Consistency:          d.Habits.Consistency,
			Streak:               d.Habits.Streak,
			PreferredSubjects:    subjects,
			LastAnalyzedAt:       d.Habits.LastAnalyzedAt,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type assignmentDoc struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"user_id"`
	Title           string     `bson:"title"`
	Subject         string     `bson:"subject"`
	Description     string     `bson:"description"`
	Topics          []string   `bson:"topics"`
	DueDate         time.Time  `bson:"due_date"`
	EstimatedHours  float64    `bson:"estimated_hours"`
	ActualHours     float64    `bson:"actual_hours"`
	Status          string     `bson:"status"`
	Priority        string     `bson:"priority"`
	Difficulty      string     `bson:"difficulty"`
	CompletedAt     *time.Time `bson:"completed_at"`
	CompletionNotes string     `bson:"completion_notes"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toAssignmentDoc(a model.Assignment) assignmentDoc {
	return assignmentDoc{
		ID:              a.ID,
		UserID:          a.UserID,
		Title:           a.Title,
		Subject:         a.Subject,
		Description:     a.Description,
		Topics:          a.Topics,
		DueDate:         a.DueDate,
		EstimatedHours:  a.EstimatedHours,
		ActualHours:     a.ActualHours,
		Status:          string(a.Status),
		Priority:        string(a.Priority),
		Difficulty:      string(a.Difficulty),
		CompletedAt:     a.CompletedAt,
		CompletionNotes: a.CompletionNotes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (d assignmentDoc) toModel() model.Assignment {
	topics := d.Topics
	if topics == nil {
		topics = []string{}
	}
	return model.Assignment{
		ID:              d.ID,
		UserID:          d.UserID,
		Title:           d.Title,
		Subject:         d.Subject,
		Description:     d.Description,
		Topics:          topics,
		DueDate:         d.DueDate,
		EstimatedHours:  d.EstimatedHours,
		ActualHours:     d.ActualHours,
		Status:          model.AssignmentStatus(d.Status),
		Priority:        model.Priority(d.Priority),
		Difficulty:      model.Difficulty(d.Difficulty),
		CompletedAt:     d.CompletedAt,
		CompletionNotes: d.CompletionNotes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type sessionDoc struct {
	ID           string     `bson:"id"`
	StartTime    string     `bson:"start_time"`
	EndTime      string     `bson:"end_time"`
	Subject      string     `bson:"subject"`
	Topic        string     `bson:"topic"`
	AssignmentID *string    `bson:"assignment_id"`
	Kind         string     `bson:"type"`
	Completed    bool       `bson:"completed"`
	CompletedAt  *time.Time `bson:"completed_at"`
	Notes        string     `bson:"notes"`
}

type dayDoc struct {
	Date      string       `bson:"date"`
	DayOfWeek string       `bson:"day_of_week"`
	Sessions  []sessionDoc `bson:"sessions"`
}

type planDoc struct {
	ID             string         `bson:"_id"`
	UserID         string         `bson:"user_id"`
	PlanType       string         `bson:"plan_type"`
	StartDate      time.Time      `bson:"start_date"`
	EndDate        time.Time      `bson:"end_date"`
	Schedule       []dayDoc       `bson:"schedule"`
	AIModel        string         `bson:"ai_model"`
	Status         string         `bson:"status"`
	AdherenceScore int            `bson:"adherence_score"`
	ExcludeDays    []time.Weekday `bson:"exclude_days,omitempty"`
	Version        int            `bson:"version"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

func toScheduleDocs(schedule model.Schedule) []dayDoc {
	days := make([]dayDoc, 0, len(schedule))
	for _, day := range schedule {
		sessions := make([]sessionDoc, 0, len(day.Sessions))
		for _, s := range day.Sessions {
			sessions = append(sessions, sessionDoc{
				ID:           s.ID,
				StartTime:    s.StartTime,
				EndTime:      s.EndTime,
				Subject:      s.Subject,
				Topic:        s.Topic,
				AssignmentID: s.AssignmentID,
				Kind:         string(s.Kind),
				Completed:    s.Completed,
				CompletedAt:  s.CompletedAt,
				Notes:        s.Notes,
			})
		}
		days = append(days, dayDoc{Date: day.Date, DayOfWeek: day.DayOfWeek, Sessions: sessions})
	}
	return days
}

func fromScheduleDocs(days []dayDoc) model.Schedule {
	schedule := make(model.Schedule, 0, len(days))
	for _, day := range days {
		sessions := make([]model.Session, 0, len(day.Sessions))
		for _, s := range day.Sessions {
			sessions = append(sessions, model.Session{
				ID:           s.ID,
				StartTime:    s.StartTime,
				EndTime:      s.EndTime,
				Subject:      s.Subject,
				Topic:        s.Topic,
				AssignmentID: s.AssignmentID,
				Kind:         model.SessionKind(s.Kind),
				Completed:    s.Completed,
				CompletedAt:  s.CompletedAt,
				Notes:        s.Notes,
			})
		}
		schedule = append(schedule, model.DaySchedule{Date: day.Date, DayOfWeek: day.DayOfWeek, Sessions: sessions})
	}
	return schedule
}

func toPlanDoc(p model.StudyPlan) planDoc {
	return planDoc{
		ID:             p.ID,
		UserID:         p.UserID,
		PlanType:       p.PlanType,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Schedule:       toScheduleDocs(p.Schedule),
		AIModel:        p.AIModel,
		Status:         string(p.Status),
		AdherenceScore: p.AdherenceScore,
		ExcludeDays:    p.ExcludeDays,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d planDoc) toModel() model.StudyPlan {
	return model.StudyPlan{
		ID:             d.ID,
		UserID:         d.UserID,
		PlanType:       d.PlanType,
		StartDate:      d.StartDate.UTC(),
		EndDate:        d.EndDate.UTC(),
		Schedule:       fromScheduleDocs(d.Schedule),
		AIModel:        d.AIModel,
		Status:         model.PlanStatus(d.Status),
		AdherenceScore: d.AdherenceScore,
		ExcludeDays:    d.ExcludeDays,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type notificationDoc struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"user_id"`
	Kind       string     `bson:"kind"`
	Title      string     `bson:"title"`
	Message    string     `bson:"message"`
	EntityType string     `bson:"entity_type"`
	EntityID   string     `bson:"entity_id"`
	Read       bool       `bson:"read"`
	ReadAt     *time.Time `bson:"read_at"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func toNotificationDoc(n model.Notification) notificationDoc {
	return notificationDoc{
		ID:         n.ID,
		UserID:     n.UserID,
		Kind:       n.Kind,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.Read,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}

func (d notificationDoc) toModel() model.Notification {
	return model.Notification{
		ID:         d.ID,
		UserID:     d.UserID,
		Kind:       d.Kind,
		Title:      d.Title,
		Message:    d.Message,
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Read:       d.Read,
		ReadAt:     d.ReadAt,
		CreatedAt:  d.CreatedAt,
	}
}
