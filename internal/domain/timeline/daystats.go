package timeline

import "time"

const dateLayout = "2006-01-02"

// StreakGap is the longest pause that still continues a focus streak.
const StreakGap = 300 * time.Second

const topAppLimit = 10

// computeDayStats derives DayStats for [dayStart, dayEnd) from disjoint intervals.
func computeDayStats(snap *Snapshot, ivs []interval, dayStart, dayEnd, now time.Time) *DayStats {
	ds := &DayStats{
		Breakdown:          make(map[string]float64),
		BreakdownPercent:   make(map[string]float64),
		TimeSinceLastBreak: -1,
	}
	for _, iv := range ivs {
		secs := iv.seconds()
		ds.TotalSeconds += secs
		ds.Breakdown[iv.Category] += secs
	}
	ds.TotalHours = ds.TotalSeconds / 3600

	breakEnd := earliest(dayEnd, now)
	away := afkSpans(snap, dayStart, breakEnd)
	for _, s := range away {
		ds.BreakDuration += s.End.Sub(s.Start).Seconds()
	}
	ds.Breakdown[CategoryBreaks] = ds.BreakDuration
	ds.BreakCount = countBreaks(snap, dayStart, breakEnd)

	if denom := ds.TotalSeconds + ds.BreakDuration; denom > 0 {
		for cat, secs := range ds.Breakdown {
			ds.BreakdownPercent[cat] = secs / denom * 100
		}
	}

	if start, end, secs, ok := longestStreak(ivs, away); ok {
		ds.LongestFocus = secs
		ds.LongestFocusStart = &start
		ds.LongestFocusEnd = &end
	}

	if !now.Before(dayStart) && now.Before(dayEnd) {
		var last time.Time
		for _, b := range snap.AFK {
			if b.EndTime != nil && !b.EndTime.After(now) && b.EndTime.After(last) {
				last = *b.EndTime
			}
		}
		if !last.IsZero() {
			ds.TimeSinceLastBreak = now.Sub(last).Seconds()
		}
	}

	if len(ivs) > 0 {
		first, lastEnd := ivs[0].Start, ivs[0].End
		for _, iv := range ivs[1:] {
			first = earliest(first, iv.Start)
			lastEnd = latest(lastEnd, iv.End)
		}
		ds.DaySpan = &DaySpan{StartTime: first, EndTime: lastEnd, SpanHours: lastEnd.Sub(first).Hours()}
	}
	return ds
}

func countBreaks(snap *Snapshot, from, to time.Time) int {
	n := 0
	for _, b := range snap.AFK {
		end := to
		if b.EndTime != nil {
			end = *b.EndTime
		}
		if b.StartTime.Before(to) && end.After(from) {
			n++
		}
	}
	return n
}

// longestStreak finds the longest run of intervals joined by pauses shorter than
// StreakGap that contain no AFK time. Its length is the active time of the run.
func longestStreak(ivs []interval, away []span) (time.Time, time.Time, float64, bool) {
	if len(ivs) == 0 {
		return time.Time{}, time.Time{}, 0, false
	}
	var (
		bestStart, bestEnd time.Time
		best               float64
	)
	curStart, curEnd, cur := ivs[0].Start, ivs[0].End, ivs[0].seconds()
	flush := func() {
		if cur > best {
			best, bestStart, bestEnd = cur, curStart, curEnd
		}
	}
	for _, iv := range ivs[1:] {
		if iv.Start.Sub(curEnd) < StreakGap && !overlapsAny(span{curEnd, iv.Start}, away) {
			cur += iv.seconds()
			curEnd = latest(curEnd, iv.End)
			continue
		}
		flush()
		curStart, curEnd, cur = iv.Start, iv.End, iv.seconds()
	}
	flush()
	return bestStart, bestEnd, best, true
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if o.Start.Before(s.End) && o.End.After(s.Start) {
			return true
		}
	}
	return false
}

// dailyStats summarizes the day [dayStart, dayEnd) of snap.
func dailyStats(snap *Snapshot, dayStart, dayEnd, now time.Time, cat Categorizer) DailyStats {
	day := snap.window(dayStart, dayEnd)
	ivs := activeIntervals(day, dayStart, dayEnd, cat)
	stats := computeDayStats(day, ivs, dayStart, dayEnd, now)

	sites := make(map[string]struct{})
	for _, b := range day.Browser {
		key := b.Domain
		if key == "" {
			key = b.URL
		}
		sites[key] = struct{}{}
	}
	files := make(map[string]struct{})
	for _, f := range day.Files {
		files[f.FilePath] = struct{}{}
	}

	return DailyStats{
		Date:             dayStart.Format(dateLayout),
		ActiveSeconds:    stats.TotalSeconds,
		ActiveMinutes:    int64(stats.TotalSeconds / 60),
		TotalScreenshots: len(day.Screenshots),
		TotalSessions:    len(day.Sessions),
		ShellCommands:    len(day.Shell),
		GitCommits:       len(day.Git),
		FilesModified:    len(files),
		SitesVisited:     len(sites),
		BreakCount:       stats.BreakCount,
		BreakSeconds:     stats.BreakDuration,
		TopApps:          topApps(ivs, topAppLimit),
		Breakdown:        stats.Breakdown,
	}
}
