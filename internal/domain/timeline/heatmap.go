package timeline

import "time"

const maxIntensity = 4

// intensity scales v against the busiest day to 0..4. Any activity is at least 1.
func intensity(v, peak float64) int {
	if v <= 0 || peak <= 0 {
		return 0
	}
	i := int(v / peak * maxIntensity)
	if i < 1 {
		return 1
	}
	if i > maxIntensity {
		return maxIntensity
	}
	return i
}

func buildCalendar(days []DailyStats, start time.Time) *CalendarData {
	cd := &CalendarData{
		Year:      start.Year(),
		Month:     int(start.Month()),
		FirstDay:  int(start.Weekday()),
		TotalDays: len(days),
		Days:      make([]CalendarDay, len(days)),
	}
	var peak float64
	for _, d := range days {
		if d.ActiveSeconds > peak {
			peak = d.ActiveSeconds
		}
	}
	for i, d := range days {
		cd.Days[i] = CalendarDay{
			Date:          d.Date,
			DayOfMonth:    i + 1,
			ActiveSeconds: d.ActiveSeconds,
			Screenshots:   d.TotalScreenshots,
			Sessions:      d.TotalSessions,
			Intensity:     intensity(d.ActiveSeconds, peak),
		}
	}
	return cd
}
