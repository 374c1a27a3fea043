package api

import (
	"strings"
	"time"

	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/service"
)

type userResponse struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	DisplayName    string             `json:"displayName"`
	TelegramLinked bool               `json:"telegramLinked"`
	Preferences    model.Preferences  `json:"preferences"`
	Habits         model.HabitProfile `json:"studyHabits"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func newUserResponse(u model.User) userResponse {
	habits := u.Habits
	if habits.PreferredSubjects == nil {
		habits.PreferredSubjects = []string{}
	}
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		TelegramLinked: u.TelegramID != 0,
		Preferences:    u.Preferences,
		Habits:         habits,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type linkCodeResponse struct {
	Code      string    `json:"code"`
	Command   string    `json:"command"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type statsResponse struct {
	AssignmentsCompleted int                `json:"assignmentsCompleted"`
	AssignmentsOpen      int                `json:"assignmentsOpen"`
	SessionsCompleted    int                `json:"sessionsCompleted"`
	TotalStudyTime       int                `json:"totalStudyTime"`
	RecentStudyHours     float64            `json:"recentStudyHours"`
	Streak               int                `json:"streak"`
	Habits               model.HabitProfile `json:"studyHabits"`
	Insights             []planner.Insight  `json:"insights"`
}

func newStatsResponse(st service.Stats) statsResponse {
	insights := st.Insights
	if insights == nil {
		insights = []planner.Insight{}
	}
	if st.Habits.PreferredSubjects == nil {
		st.Habits.PreferredSubjects = []string{}
	}
	return statsResponse{
		AssignmentsCompleted: st.AssignmentsCompleted,
		AssignmentsOpen:      st.AssignmentsOpen,
		SessionsCompleted:    st.SessionsCompleted,
		TotalStudyTime:       st.TotalStudyMinutes,
		RecentStudyHours:     st.RecentStudyHours,
		Streak:               st.Habits.Streak,
		Habits:               st.Habits,
		Insights:             insights,
	}
}

type assignmentResponse struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Subject         string                 `json:"subject"`
	Description     string                 `json:"description"`
	Topics          []string               `json:"topics"`
	DueDate         time.Time              `json:"dueDate"`
	EstimatedHours  float64                `json:"estimatedHours"`
	ActualHours     float64                `json:"actualHours"`
	Status          model.AssignmentStatus `json:"status"`
	Priority        model.Priority         `json:"priority"`
	Difficulty      model.Difficulty       `json:"difficulty"`
	CompletedAt     *time.Time             `json:"completedAt"`
	CompletionNotes string                 `json:"completionNotes"`
	DaysRemaining   int                    `json:"daysRemaining"`
	HoursRemaining  int                    `json:"hoursRemaining"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func newAssignmentResponse(a model.Assignment, now time.Time) assignmentResponse {
	topics := a.Topics
	if topics == nil {
		topics = []string{}
	}
	return assignmentResponse{
		ID:              a.ID,
		Title:           a.Title,
		Subject:         a.Subject,
		Description:     a.Description,
		Topics:          topics,
		DueDate:         a.DueDate,
		EstimatedHours:  a.EstimatedHours,
		ActualHours:     a.ActualHours,
		Status:          a.Status,
		Priority:        a.Priority,
		Difficulty:      a.Difficulty,
		CompletedAt:     a.CompletedAt,
		CompletionNotes: a.CompletionNotes,
		DaysRemaining:   planner.DaysRemaining(a.DueDate, now),
		HoursRemaining:  planner.HoursRemaining(a.DueDate, now),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func newAssignmentList(items []model.Assignment, now time.Time) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, newAssignmentResponse(a, now))
	}
	return out
}

type dayResponse struct {
	Date           string          `json:"date"`
	DayOfWeek      string          `json:"dayOfWeek"`
	Sessions       []model.Session `json:"sessions"`
	PlannedHours   float64         `json:"plannedHours"`
	CompletedHours float64         `json:"completedHours"`
}

type planResponse struct {
	ID                string           `json:"id"`
	PlanType          string           `json:"planType"`
	StartDate         string           `json:"startDate"`
	EndDate           string           `json:"endDate"`
	Schedule          []dayResponse    `json:"schedule"`
	AIModel           string           `json:"aiModel"`
	Status            model.PlanStatus `json:"status"`
	AdherenceScore    int              `json:"adherenceScore"`
	TotalSessions     int              `json:"totalSessions"`
	CompletedSessions int              `json:"completedSessions"`
	ExcludeDays       []string         `json:"excludeDays"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func newPlanResponse(p model.StudyPlan) planResponse {
	days := make([]dayResponse, 0, len(p.Schedule))
	for _, d := range p.Schedule {
		sessions := d.Sessions
		if sessions == nil {
			sessions = []model.Session{}
		}
		days = append(days, dayResponse{
			Date:           d.Date,
			DayOfWeek:      d.DayOfWeek,
			Sessions:       sessions,
			PlannedHours:   d.PlannedHours(),
			CompletedHours: d.CompletedHours(),
		})
	}
	total, completed := p.Schedule.SessionCount()
	excluded := make([]string, 0, len(p.ExcludeDays))
	for _, d := range p.ExcludeDays {
		excluded = append(excluded, strings.ToLower(d.String()))
	}
	return planResponse{
		ID:                p.ID,
		PlanType:          p.PlanType,
		StartDate:         p.StartDate.Format(model.DateLayout),
		EndDate:           p.EndDate.Format(model.DateLayout),
		Schedule:          days,
		AIModel:           p.AIModel,
		Status:            p.Status,
		AdherenceScore:    p.AdherenceScore,
		TotalSessions:     total,
		CompletedSessions: completed,
		ExcludeDays:       excluded,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func newPlanList(plans []model.StudyPlan) []planResponse {
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, newPlanResponse(p))
	}
	return out
}

type rebalanceResponse struct {
	Rebalanced bool         `json:"rebalanced"`
	Plan       planResponse `json:"plan"`
}

type todayResponse struct {
	PlanID  string        `json:"planId"`
	Session model.Session `json:"session"`
}

func newTodayList(sessions []service.PlannedSession) []todayResponse {
	out := make([]todayResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, todayResponse{PlanID: s.PlanID, Session: s.Session})
	}
	return out
}

type notificationResponse struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType string     `json:"relatedEntityType"`
	EntityID   string     `json:"relatedEntityId"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func newNotificationResponse(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:         n.ID,
		Type:       n.Kind,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.Read,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}

func newNotificationList(items []model.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, newNotificationResponse(n))
	}
	return out
}
