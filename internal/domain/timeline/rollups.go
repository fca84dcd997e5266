package timeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// rollDays computes DailyStats for every local day in [from, to), in order.
func rollDays(ctx context.Context, snap *Snapshot, from, to, now time.Time, cat Categorizer, workers int) ([]DailyStats, error) {
	var starts []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		starts = append(starts, d)
	}
	out := make([]DailyStats, len(starts))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, d := range starts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = dailyStats(snap, d, earliest(d.AddDate(0, 0, 1), to), now, cat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type rollup struct {
	totalSeconds float64
	activeDays   int
	breakdown    map[string]float64
	averages     Averages
	mostActive   string
}

func summarize(days []DailyStats) rollup {
	r := rollup{breakdown: make(map[string]float64)}
	var best float64
	var screenshots, sessions, commits, shell int
	for _, d := range days {
		r.totalSeconds += d.ActiveSeconds
		for cat, secs := range d.Breakdown {
			r.breakdown[cat] += secs
		}
		if d.ActiveSeconds <= 0 {
			continue
		}
		r.activeDays++
		screenshots += d.TotalScreenshots
		sessions += d.TotalSessions
		commits += d.GitCommits
		shell += d.ShellCommands
		if d.ActiveSeconds > best {
			best, r.mostActive = d.ActiveSeconds, d.Date
		}
	}
	if r.activeDays > 0 {
		n := float64(r.activeDays)
		r.averages = Averages{
			ActiveSeconds: r.totalSeconds / n,
			Screenshots:   float64(screenshots) / n,
			Sessions:      float64(sessions) / n,
			GitCommits:    float64(commits) / n,
			ShellCommands: float64(shell) / n,
		}
	}
	return r
}

// weekStart returns local midnight of the Monday on or before t.
func weekStart(t time.Time, loc *time.Location) time.Time {
	day, _ := dayBounds(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

func buildWeek(days []DailyStats, start, end time.Time) *WeekStats {
	r := summarize(days)
	return &WeekStats{
		StartDate:         start.Format(dateLayout),
		EndDate:           end.AddDate(0, 0, -1).Format(dateLayout),
		Days:              days,
		TotalSeconds:      r.totalSeconds,
		ActiveDays:        r.activeDays,
		MostActiveDay:     r.mostActive,
		CategoryBreakdown: r.breakdown,
		Averages:          r.averages,
	}
}

// weekSlices cuts month days into Monday-started weeks. The first and last may be partial.
func weekSlices(days []DailyStats, start time.Time) []WeekSlice {
	var out []WeekSlice
	for i, d := range days {
		date := start.AddDate(0, 0, i)
		if i == 0 || date.Weekday() == time.Monday {
			out = append(out, WeekSlice{WeekNumber: len(out) + 1, StartDate: d.Date})
		}
		w := &out[len(out)-1]
		w.EndDate = d.Date
		w.TotalSeconds += d.ActiveSeconds
		if d.ActiveSeconds > 0 {
			w.ActiveDays++
		}
	}
	return out
}

func buildMonth(days []DailyStats, start, end time.Time) *MonthStats {
	r := summarize(days)
	return &MonthStats{
		Year:              start.Year(),
		Month:             int(start.Month()),
		StartDate:         start.Format(dateLayout),
		EndDate:           end.AddDate(0, 0, -1).Format(dateLayout),
		Days:              days,
		Weeks:             weekSlices(days, start),
		TotalSeconds:      r.totalSeconds,
		ActiveDays:        r.activeDays,
		CategoryBreakdown: r.breakdown,
		Averages:          r.averages,
	}
}

func buildYear(days []DailyStats, year int, start time.Time) *YearlyStats {
	r := summarize(days)
	ys := &YearlyStats{
		Year:              year,
		Months:            make([]MonthSummary, 12),
		TotalSeconds:      r.totalSeconds,
		ActiveDays:        r.activeDays,
		CategoryBreakdown: r.breakdown,
		Averages:          r.averages,
	}
	for i := range ys.Months {
		ys.Months[i].Month = i + 1
	}
	for i, d := range days {
		m := &ys.Months[int(start.AddDate(0, 0, i).Month())-1]
		m.TotalSeconds += d.ActiveSeconds
		m.Screenshots += d.TotalScreenshots
		m.Sessions += d.TotalSessions
		m.GitCommits += d.GitCommits
		if d.ActiveSeconds > 0 {
			m.ActiveDays++
		}
	}
	var best float64
	for _, m := range ys.Months {
		if m.TotalSeconds > best {
			best, ys.MostActiveMonth = m.TotalSeconds, m.Month
		}
	}
	return ys
}
