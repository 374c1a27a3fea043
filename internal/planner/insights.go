package planner

import (
	"fmt"
	"strings"

	"study-planner/internal/model"
)

const (
	InsightPositive   = "positive"
	InsightWarning    = "warning"
	InsightSuggestion = "suggestion"
	InsightInfo       = "info"
)

const insightSubjects = 3

// Insight is a short piece of feedback on a habit profile.
type Insight struct {
	Kind     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Insights turns a habit profile and the hours studied over the last week
// into feedback. Profiles that were never analyzed only get the peak-time hint.
func Insights(h model.HabitProfile, recentHours float64) []Insight {
	var out []Insight
	analyzed := h.LastAnalyzedAt != nil && h.AverageStudyHours > 0

	if analyzed {
		switch {
		case h.Consistency >= 80:
			out = append(out, Insight{InsightPositive, "consistency", "Excellent study consistency! Keep up the great work."})
		case h.Consistency < 50:
			out = append(out, Insight{InsightWarning, "consistency", "Your study consistency could be improved. Try setting a daily study goal."})
		}
		switch {
		case h.AverageStudyHours < 2:
			out = append(out, Insight{InsightSuggestion, "study-time", "Consider increasing your daily study time to improve learning outcomes."})
		case h.AverageStudyHours > 8:
			out = append(out, Insight{InsightWarning, "study-time", "Be careful not to burn out. Make sure to take adequate breaks."})
		}
	}

	out = append(out, Insight{InsightInfo, "productivity",
		fmt.Sprintf("Your peak productivity time is %s. Schedule harder tasks during this time.", h.PeakProductivityTime)})

	if recentHours > 0 {
		out = append(out, Insight{InsightInfo, "recent-activity", fmt.Sprintf("You've studied %.1f hours in the last 7 days.", recentHours)})
	}
	if h.Streak >= 3 {
		out = append(out, Insight{InsightPositive, "streak", fmt.Sprintf("Great job! Your longest study streak is %d days.", h.Streak)})
	}
	if len(h.PreferredSubjects) > 0 {
		top := h.PreferredSubjects
		if len(top) > insightSubjects {
			top = top[:insightSubjects]
		}
		out = append(out, Insight{InsightInfo, "subjects", "You focus most on: " + strings.Join(top, ", ")})
	}
	return out
}
