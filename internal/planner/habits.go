package planner

import (
	"math"
	"sort"
	"time"

	"study-planner/internal/model"
)

const maxPreferredSubjects = 5

// bandOf maps a session start time to the part of the day it falls in.
func bandOf(clock string) (model.TimeBand, bool) {
	t, err := time.Parse(model.ClockLayout, clock)
	if err != nil {
		return "", false
	}
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return model.TimeMorning, true
	case h >= 12 && h < 17:
		return model.TimeAfternoon, true
	case h >= 17 && h < 21:
		return model.TimeEvening, true
	default:
		return model.TimeNight, true
	}
}

// AnalyzeHabits derives a habit profile from the completed sessions of plans.
func AnalyzeHabits(plans []model.StudyPlan, now time.Time) model.HabitProfile {
	analyzed := now
	profile := model.DefaultHabits()
	profile.LastAnalyzedAt = &analyzed

	var (
		totalMinutes float64
		days         = make(map[string]bool)
		bandMinutes  = make(map[model.TimeBand]float64)
		subjects     = make(map[string]float64)
		earliest     time.Time
	)
	for _, plan := range plans {
		for _, day := range plan.Schedule {
			d, err := day.Day()
			if err != nil {
				continue
			}
			for _, s := range day.Sessions {
				if !s.Completed || s.Kind == model.KindBreak {
					continue
				}
				minutes := s.Duration().Minutes()
				if minutes <= 0 {
					continue
				}
				totalMinutes += minutes
				days[day.Date] = true
				if band, ok := bandOf(s.StartTime); ok {
					bandMinutes[band] += minutes
				}
				if s.Subject != "" {
					subjects[s.Subject] += minutes
				}
				if earliest.IsZero() || d.Before(earliest) {
					earliest = d
				}
			}
		}
	}
	if len(days) == 0 {
		return profile
	}

	profile.AverageStudyHours = math.Round(totalMinutes/60/float64(len(days))*100) / 100

	var peak float64
	for _, band := range model.TimeBands {
		if bandMinutes[band] > peak {
			peak = bandMinutes[band]
			profile.PeakProductivityTime = band
		}
	}

	period := math.Ceil(DateOf(now).Sub(earliest).Hours() / 24)
	if period < 1 {
		period = 1
	}
	profile.Consistency = int(math.Min(100, math.Round(float64(len(days))/period*100)))
	profile.Streak = longestStreak(days)

	names := make([]string, 0, len(subjects))
	for name := range subjects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if subjects[names[i]] != subjects[names[j]] {
			return subjects[names[i]] > subjects[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > maxPreferredSubjects {
		names = names[:maxPreferredSubjects]
	}
	profile.PreferredSubjects = names
	return profile
}

// longestStreak counts the longest run of consecutive calendar dates.
func longestStreak(days map[string]bool) int {
	dates := make([]time.Time, 0, len(days))
	for raw := range days {
		if d, err := time.Parse(model.DateLayout, raw); err == nil {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return 0
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// StudyTime sums the completed study sessions of plans on or after since.
// A zero since counts everything.
func StudyTime(plans []model.StudyPlan, since time.Time) (time.Duration, int) {
	var (
		total    time.Duration
		sessions int
	)
	for _, plan := range plans {
		for _, day := range plan.Schedule {
			if !since.IsZero() {
				d, err := day.Day()
				if err != nil || d.Before(DateOf(since)) {
					continue
				}
			}
			for _, s := range day.Sessions {
				if !s.Completed || s.Kind == model.KindBreak || s.Duration() <= 0 {
					continue
				}
				total += s.Duration()
				sessions++
			}
		}
	}
	return total, sessions
}
