package timeline

import "time"

const (
	maxHourlyRange = 24 * time.Hour
	maxDailyRange  = 60 * 24 * time.Hour
	maxWeeklyRange = 104 * 7 * 24 * time.Hour
)

// ResolutionFor picks the bucket size for a range of length d.
func ResolutionFor(d time.Duration) Resolution {
	switch {
	case d <= maxHourlyRange:
		return ResolutionHourly
	case d <= maxDailyRange:
		return ResolutionDaily
	case d <= maxWeeklyRange:
		return ResolutionWeekly
	}
	return ResolutionMonthly
}

// bucketStarts returns aligned bucket boundaries covering [from, to), clipped to the range.
func bucketStarts(from, to time.Time, res Resolution, loc *time.Location) []span {
	var first time.Time
	l := from.In(loc)
	switch res {
	case ResolutionHourly:
		first = time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), 0, 0, 0, loc)
	case ResolutionDaily:
		first, _ = dayBounds(from, loc)
	case ResolutionWeekly:
		first = weekStart(from, loc)
	default:
		first = time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, loc)
	}

	var out []span
	for start := first; start.Before(to); {
		var next time.Time
		switch res {
		case ResolutionHourly:
			next = start.Add(time.Hour)
		case ResolutionDaily:
			next = start.AddDate(0, 0, 1)
		case ResolutionWeekly:
			next = start.AddDate(0, 0, 7)
		default:
			next = start.AddDate(0, 1, 0)
		}
		out = append(out, span{latest(start, from), earliest(next, to)})
		start = next
	}
	return out
}

func bucketLabel(t time.Time, res Resolution, loc *time.Location) string {
	l := t.In(loc)
	switch res {
	case ResolutionHourly:
		return l.Format("15:04")
	case ResolutionMonthly:
		return l.Format("2006-01")
	}
	return l.Format(dateLayout)
}

// customRange aggregates [from, to) at an automatic resolution.
func customRange(snap *Snapshot, from, to, now time.Time, cat Categorizer, loc *time.Location) *CustomRangeStats {
	res := ResolutionFor(to.Sub(from))
	ivs := activeIntervals(snap, from, to, cat)

	out := &CustomRangeStats{
		From:              from,
		To:                to,
		Resolution:        res,
		CategoryBreakdown: make(map[string]float64),
		TopApps:           topApps(ivs, topAppLimit),
	}

	for _, b := range bucketStarts(from, to, res, loc) {
		w := snap.window(b.Start, b.End)
		bucket := Bucket{
			Start:       b.Start,
			End:         b.End,
			Label:       bucketLabel(b.Start, res, loc),
			Screenshots: len(w.Screenshots),
			Sessions:    len(w.Sessions),
			Breakdown:   make(map[string]float64),
		}
		for _, iv := range clip(ivs, b.Start, b.End) {
			secs := iv.seconds()
			bucket.ActiveSeconds += secs
			bucket.Breakdown[iv.Category] += secs
		}
		for _, s := range afkSpans(w, b.Start, earliest(b.End, now)) {
			bucket.Breakdown[CategoryBreaks] += s.End.Sub(s.Start).Seconds()
		}
		out.TotalSeconds += bucket.ActiveSeconds
		for c, secs := range bucket.Breakdown {
			out.CategoryBreakdown[c] += secs
		}
		out.Buckets = append(out.Buckets, bucket)
	}

	days := make(map[string]struct{})
	for _, iv := range ivs {
		for d := iv.Start; d.Before(iv.End); {
			day, next := dayBounds(d, loc)
			days[day.Format(dateLayout)] = struct{}{}
			d = next
		}
	}
	out.ActiveDays = len(days)
	return out
}

// clip returns the parts of ivs inside [from, to).
func clip(ivs []interval, from, to time.Time) []interval {
	var out []interval
	for _, iv := range ivs {
		s, e := latest(iv.Start, from), earliest(iv.End, to)
		if !e.After(s) {
			continue
		}
		piece := iv
		piece.Start, piece.End = s, e
		out = append(out, piece)
	}
	return out
}
