package model

import "time"

// TimeBand is a coarse part of the day a student prefers or performs best in.
type TimeBand string

const (
	TimeMorning   TimeBand = "morning"
	TimeAfternoon TimeBand = "afternoon"
	TimeEvening   TimeBand = "evening"
	TimeNight     TimeBand = "night"
)

// TimeBands lists every valid band in day order.
var TimeBands = []TimeBand{TimeMorning, TimeAfternoon, TimeEvening, TimeNight}

// Preferences are the study settings a user controls.
type Preferences struct {
	StudyHoursPerDay     float64  `json:"studyHoursPerDay"`
	StudyTimePreference  TimeBand `json:"studyTimePreference"`
	SessionMinutes       int      `json:"sessionDuration"`
	BreakMinutes         int      `json:"breakDuration"`
	NotificationsEnabled bool     `json:"notificationsEnabled"`
}

// HabitProfile is derived from the sessions a user actually completed.
// Streak is the longest run of consecutive days with a completed session.
type HabitProfile struct {
	PeakProductivityTime TimeBand   `json:"peakProductivityTime"`
	AverageStudyHours    float64    `json:"averageStudyHours"`
	Consistency          int        `json:"consistency"`
	Streak               int        `json:"streak"`
	PreferredSubjects    []string   `json:"preferredSubjects"`
	LastAnalyzedAt       *time.Time `json:"lastAnalyzedAt"`
}

// User is a student. The identity itself is issued by an external auth provider.
type User struct {
	ID          string
	Email       string
	DisplayName string
	TelegramID  int64
	Preferences Preferences
	Habits      HabitProfile
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func DefaultPreferences() Preferences {
	return Preferences{
		StudyHoursPerDay:     4,
		StudyTimePreference:  TimeEvening,
		SessionMinutes:       45,
		BreakMinutes:         15,
		NotificationsEnabled: true,
	}
}

func DefaultHabits() HabitProfile {
	return HabitProfile{
		PeakProductivityTime: TimeEvening,
		PreferredSubjects:    []string{},
	}
}
