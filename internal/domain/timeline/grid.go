package timeline

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultPixelsPerHour is the grid scale when none is configured.
const DefaultPixelsPerHour = 60.0

const (
	minBlockPixels   = 4.0
	minSessionPixels = 10.0
)

// layout places times on a grid scaled to pph pixels per hour.
type layout struct {
	loc *time.Location
	pph float64
}

func (l layout) position(t time.Time) Position {
	lt := t.In(l.loc)
	return Position{
		HourOffset:    lt.Hour(),
		MinuteOffset:  lt.Minute(),
		PixelPosition: float64(lt.Minute()) / 60 * l.pph,
	}
}

func (l layout) height(seconds, floor float64) float64 {
	h := seconds / 3600 * l.pph
	if h < floor {
		return floor
	}
	return h
}

func (l layout) hour(t time.Time) int {
	return t.In(l.loc).Hour()
}

// buildGrid fills the per-hour sections of the day view.
func buildGrid(snap *Snapshot, ivs []interval, dayStart, dayEnd, now time.Time, l layout, opts GridOptions) *TimelineGridData {
	g := &TimelineGridData{
		Date:          dayStart.Format(dateLayout),
		HourlyGrid:    make(map[int]map[string][]ActivityBlock),
		GitEvents:     make(map[int][]GitEventDisplay),
		ShellEvents:   make(map[int][]ShellEventDisplay),
		FileEvents:    make(map[int][]FileEventDisplay),
		BrowserEvents: make(map[int][]BrowserEventDisplay),
		AFKBlocks:     make(map[int][]AFKDisplay),
		Categories:    make(map[string]string),
	}

	for _, iv := range ivs {
		for _, piece := range splitHourly(iv, l.loc) {
			g.HourlySeconds[l.hour(piece.Start)] += piece.seconds()
		}
	}

	display := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if opts.MinDuration > 0 && iv.End.Sub(iv.Start) < opts.MinDuration {
			continue
		}
		display = append(display, iv)
	}
	if opts.MergeSameApp {
		display = mergeSameApp(display, opts.MergeGap)
	}
	for _, iv := range display {
		g.Categories[iv.App] = iv.Category
		for _, piece := range splitHourly(iv, l.loc) {
			h := l.hour(piece.Start)
			if g.HourlyGrid[h] == nil {
				g.HourlyGrid[h] = make(map[string][]ActivityBlock)
			}
			g.HourlyGrid[h][piece.App] = append(g.HourlyGrid[h][piece.App], activityBlock(snap, piece, l))
		}
	}

	for _, s := range snap.Sessions {
		g.Sessions = append(g.Sessions, SessionBlock{
			SessionID:       s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: sessionSeconds(s.StartTime, s.EndTime, now),
			SummaryID:       s.SummaryID,
			Category:        dominantCategory(ivs, s.StartTime, sessionEnd(s.EndTime, now)),
			PixelHeight:     l.height(float64(sessionSeconds(s.StartTime, s.EndTime, now)), minSessionPixels),
			Position:        l.position(s.StartTime),
		})
	}

	for _, c := range snap.Git {
		h := l.hour(c.Timestamp)
		g.GitEvents[h] = append(g.GitEvents[h], GitEventDisplay{
			EventID:        c.ID,
			Timestamp:      c.Timestamp,
			Message:        c.Message,
			MessageSubject: subject(c.Message),
			ShortHash:      c.ShortHash,
			Repository:     c.Repository,
			Branch:         c.Branch,
			Insertions:     c.Insertions,
			Deletions:      c.Deletions,
			Position:       l.position(c.Timestamp),
		})
	}
	for _, c := range snap.Shell {
		h := l.hour(c.Timestamp)
		g.ShellEvents[h] = append(g.ShellEvents[h], ShellEventDisplay{
			EventID:          c.ID,
			Timestamp:        c.Timestamp,
			Command:          c.Command,
			ShellType:        c.ShellType,
			WorkingDirectory: c.WorkingDirectory,
			ExitCode:         c.ExitCode,
			DurationSeconds:  c.DurationSeconds,
			Position:         l.position(c.Timestamp),
		})
	}
	for _, f := range snap.Files {
		h := l.hour(f.Timestamp)
		g.FileEvents[h] = append(g.FileEvents[h], FileEventDisplay{
			EventID:       f.ID,
			Timestamp:     f.Timestamp,
			EventType:     f.EventType,
			FilePath:      f.FilePath,
			FileName:      filepath.Base(f.FilePath),
			Directory:     filepath.Dir(f.FilePath),
			FileExtension: strings.TrimPrefix(filepath.Ext(f.FilePath), "."),
			FileSizeBytes: f.FileSizeBytes,
			WatchCategory: f.WatchCategory,
			OldPath:       f.OldPath,
			Position:      l.position(f.Timestamp),
		})
	}
	for _, b := range snap.Browser {
		h := l.hour(b.Timestamp)
		g.BrowserEvents[h] = append(g.BrowserEvents[h], BrowserEventDisplay{
			EventID:              b.ID,
			Timestamp:            b.Timestamp,
			URL:                  b.URL,
			Title:                b.Title,
			Domain:               b.Domain,
			Browser:              b.Browser,
			VisitDurationSeconds: b.VisitDurationSeconds,
			Position:             l.position(b.Timestamp),
		})
	}

	for _, b := range snap.AFK {
		end := now
		if b.EndTime != nil {
			end = *b.EndTime
		}
		start := latest(b.StartTime, dayStart)
		end = earliest(end, dayEnd)
		if !end.After(start) {
			continue
		}
		secs := end.Sub(start).Seconds()
		h := l.hour(start)
		g.AFKBlocks[h] = append(g.AFKBlocks[h], AFKDisplay{
			BlockID:         b.ID,
			StartTime:       start,
			EndTime:         end,
			Open:            b.EndTime == nil,
			DurationSeconds: secs,
			TriggerType:     string(b.TriggerType),
			PixelHeight:     l.height(secs, minBlockPixels),
			Position:        l.position(start),
		})
	}
	return g
}

func activityBlock(snap *Snapshot, iv interval, l layout) ActivityBlock {
	secs := iv.seconds()
	b := ActivityBlock{
		EventID:           iv.EventID,
		WindowTitle:       iv.Title,
		AppName:           iv.App,
		StartTime:         iv.Start,
		EndTime:           iv.End,
		DurationSeconds:   secs,
		Category:          iv.Category,
		PixelHeight:       l.height(secs, minBlockPixels),
		ProjectID:         iv.ProjectID,
		ProjectSource:     iv.Source,
		ProjectConfidence: iv.Confidence,
		Position:          l.position(iv.Start),
	}
	if p, ok := snap.Projects[iv.ProjectID]; ok {
		b.ProjectName = p.Name
		b.ProjectColor = p.Color
	}
	return b
}

// dominantCategory is the category with the most active time in [from, to).
func dominantCategory(ivs []interval, from, to time.Time) string {
	totals := make(map[string]float64)
	for _, iv := range ivs {
		s, e := latest(iv.Start, from), earliest(iv.End, to)
		if e.After(s) {
			totals[iv.Category] += e.Sub(s).Seconds()
		}
	}
	best, bestSecs := CategoryOther, 0.0
	for _, cat := range ActivityCategories {
		if totals[cat] > bestSecs {
			best, bestSecs = cat, totals[cat]
		}
	}
	return best
}

func sessionEnd(end *time.Time, now time.Time) time.Time {
	if end != nil {
		return *end
	}
	return now
}

func sessionSeconds(start time.Time, end *time.Time, now time.Time) int64 {
	d := sessionEnd(end, now).Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

func subject(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return strings.TrimSpace(msg)
}

// topApps returns the apps with the most active time, largest first.
func topApps(ivs []interval, n int) []TopApp {
	totals := make(map[string]*TopApp)
	for _, iv := range ivs {
		t, ok := totals[iv.App]
		if !ok {
			t = &TopApp{AppName: iv.App, Category: iv.Category}
			totals[iv.App] = t
		}
		t.Duration += iv.seconds()
	}
	out := make([]TopApp, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].AppName < out[j].AppName
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
