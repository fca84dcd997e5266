package timeline

import "time"

type periodTotals struct {
	active      float64
	screenshots int
	sessions    int
	breaks      float64
	commits     int
	categories  map[string]float64
}

func totalsFor(snap *Snapshot, from, to, now time.Time, cat Categorizer) periodTotals {
	w := snap.window(from, to)
	t := periodTotals{
		screenshots: len(w.Screenshots),
		sessions:    len(w.Sessions),
		commits:     len(w.Git),
		categories:  make(map[string]float64),
	}
	for _, iv := range activeIntervals(w, from, to, cat) {
		secs := iv.seconds()
		t.active += secs
		t.categories[iv.Category] += secs
	}
	for _, s := range afkSpans(w, from, earliest(to, now)) {
		t.breaks += s.End.Sub(s.Start).Seconds()
	}
	return t
}

// NewDelta compares current against previous.
func NewDelta(current, previous float64) Delta {
	d := Delta{Current: current, Previous: previous, Delta: current - previous}
	if previous != 0 {
		pct := (current - previous) / previous * 100
		d.PercentChange = &pct
	}
	return d
}

func compare(cur, prev periodTotals, curPeriod, prevPeriod Period) *Comparison {
	c := &Comparison{
		Current:       curPeriod,
		Previous:      prevPeriod,
		ActiveSeconds: NewDelta(cur.active, prev.active),
		Screenshots:   NewDelta(float64(cur.screenshots), float64(prev.screenshots)),
		Sessions:      NewDelta(float64(cur.sessions), float64(prev.sessions)),
		BreakSeconds:  NewDelta(cur.breaks, prev.breaks),
		GitCommits:    NewDelta(float64(cur.commits), float64(prev.commits)),
		Categories:    make(map[string]Delta),
	}
	for _, name := range ActivityCategories {
		c.Categories[name] = NewDelta(cur.categories[name], prev.categories[name])
	}
	return c
}
