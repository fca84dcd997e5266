package timeline

import (
	"sort"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
)

// interval is a disjoint piece of focused time.
type interval struct {
	Start      time.Time
	End        time.Time
	EventID    string
	App        string
	Title      string
	Category   string
	ProjectID  string
	Source     string
	Confidence float64
}

func (iv interval) seconds() float64 {
	return iv.End.Sub(iv.Start).Seconds()
}

type span struct {
	Start time.Time
	End   time.Time
}

// activeIntervals clips focus events to [from, to), removes AFK time and resolves
// overlaps so that no instant is counted twice. The earlier-starting event keeps
// the overlapping part.
func activeIntervals(snap *Snapshot, from, to time.Time, cat Categorizer) []interval {
	focus := make([]activity.FocusEvent, len(snap.Focus))
	copy(focus, snap.Focus)
	sort.Slice(focus, func(i, j int) bool {
		if !focus[i].StartTime.Equal(focus[j].StartTime) {
			return focus[i].StartTime.Before(focus[j].StartTime)
		}
		return focus[i].ID < focus[j].ID
	})

	away := afkSpans(snap, from, to)
	var out []interval
	cursor := from
	for _, f := range focus {
		start := latest(f.StartTime, cursor)
		end := earliest(f.EndTime, to)
		if !end.After(start) {
			continue
		}
		cursor = end

		base := interval{
			EventID:  f.ID,
			App:      f.AppName,
			Title:    f.WindowTitle,
			Category: cat.Category(f.AppName),
		}
		if f.ProjectID != nil {
			base.ProjectID = *f.ProjectID
		}
		if f.ProjectSource != nil {
			base.Source = string(*f.ProjectSource)
		}
		if f.ProjectConfidence != nil {
			base.Confidence = *f.ProjectConfidence
		}
		for _, piece := range subtract(span{start, end}, away) {
			iv := base
			iv.Start, iv.End = piece.Start, piece.End
			out = append(out, iv)
		}
	}
	return out
}

// afkSpans returns merged AFK periods clipped to [from, to). An open block runs to the range end.
func afkSpans(snap *Snapshot, from, to time.Time) []span {
	var spans []span
	for _, b := range snap.AFK {
		end := to
		if b.EndTime != nil {
			end = *b.EndTime
		}
		s := span{latest(b.StartTime, from), earliest(end, to)}
		if s.End.After(s.Start) {
			spans = append(spans, s)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && !s.Start.After(merged[n-1].End) {
			if s.End.After(merged[n-1].End) {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// subtract removes sorted, disjoint holes from s.
func subtract(s span, holes []span) []span {
	var out []span
	cur := s.Start
	for _, h := range holes {
		if !h.End.After(cur) {
			continue
		}
		if !h.Start.Before(s.End) {
			break
		}
		if h.Start.After(cur) {
			out = append(out, span{cur, h.Start})
		}
		cur = h.End
		if !cur.Before(s.End) {
			return out
		}
	}
	if s.End.After(cur) {
		out = append(out, span{cur, s.End})
	}
	return out
}

// splitHourly cuts iv at local hour boundaries.
func splitHourly(iv interval, loc *time.Location) []interval {
	var out []interval
	for start := iv.Start; start.Before(iv.End); {
		next := earliest(nextHour(start, loc), iv.End)
		piece := iv
		piece.Start, piece.End = start, next
		out = append(out, piece)
		start = next
	}
	return out
}

func nextHour(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), 0, 0, 0, loc).Add(time.Hour)
}

// mergeSameApp joins consecutive intervals of one app separated by at most gap.
func mergeSameApp(ivs []interval, gap time.Duration) []interval {
	if len(ivs) < 2 {
		return ivs
	}
	out := make([]interval, 0, len(ivs))
	cur := ivs[0]
	for _, next := range ivs[1:] {
		if next.App == cur.App && next.Start.Sub(cur.End) <= gap {
			cur.End = next.End
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// dayBounds returns local midnight of t's day and of the following day.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	l := t.In(loc)
	start := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
