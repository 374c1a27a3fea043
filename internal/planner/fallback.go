package planner

import (
	"fmt"

	"study-planner/internal/model"
)

const fallbackSessionHours = 2

// fallbackStartHour is where the skeleton session begins for each preferred band.
var fallbackStartHour = map[model.TimeBand]int{
	model.TimeMorning:   9,
	model.TimeAfternoon: 14,
	model.TimeEvening:   18,
	model.TimeNight:     21,
}

// fallback emits one placeholder study block per weekday in range. Weekends and
// excluded weekdays get no entry at all.
func (s *Synthesizer) fallback(req PlanningRequest) model.Schedule {
	hour, ok := fallbackStartHour[req.Preferences.StudyTimePreference]
	if !ok {
		hour = 9
	}
	startTime := fmt.Sprintf("%02d:00", hour)
	endTime := fmt.Sprintf("%02d:00", hour+fallbackSessionHours)

	schedule := model.Schedule{}
	end := DateOf(req.End)
	for d := DateOf(req.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) || req.excluded(d) {
			continue
		}
		schedule = append(schedule, model.DaySchedule{
			Date:      d.Format(model.DateLayout),
			DayOfWeek: d.Weekday().String(),
			Sessions: []model.Session{{
				ID:        s.newID(),
				StartTime: startTime,
				EndTime:   endTime,
				Subject:   "Study Session",
				Topic:     "To be determined",
				Kind:      model.KindStudy,
			}},
		})
	}
	return schedule
}
