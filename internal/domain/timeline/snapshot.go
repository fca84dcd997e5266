package timeline

import (
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/session"
)

// ProjectInfo is the display data of a project.
type ProjectInfo struct {
	Name  string
	Color string
}

// Snapshot is every row a range aggregate needs, read in one transaction.
type Snapshot struct {
	From        time.Time
	To          time.Time
	LatestWrite time.Time

	Focus       []activity.FocusEvent
	Screenshots []time.Time
	Shell       []activity.ShellCommand
	Git         []activity.GitCommit
	Files       []activity.FileEvent
	Browser     []activity.BrowserVisit
	AFK         []session.AFKBlock
	Sessions    []session.Session

	Projects   map[string]ProjectInfo
	Categories map[string]string
}

// window returns the part of s that falls in [from, to). Slices are shared.
func (s *Snapshot) window(from, to time.Time) *Snapshot {
	w := &Snapshot{
		From: from, To: to, LatestWrite: s.LatestWrite,
		Projects: s.Projects, Categories: s.Categories,
	}
	for _, f := range s.Focus {
		if f.StartTime.Before(to) && f.EndTime.After(from) {
			w.Focus = append(w.Focus, f)
		}
	}
	for _, t := range s.Screenshots {
		if inRange(t, from, to) {
			w.Screenshots = append(w.Screenshots, t)
		}
	}
	for _, c := range s.Shell {
		if inRange(c.Timestamp, from, to) {
			w.Shell = append(w.Shell, c)
		}
	}
	for _, g := range s.Git {
		if inRange(g.Timestamp, from, to) {
			w.Git = append(w.Git, g)
		}
	}
	for _, f := range s.Files {
		if inRange(f.Timestamp, from, to) {
			w.Files = append(w.Files, f)
		}
	}
	for _, b := range s.Browser {
		if inRange(b.Timestamp, from, to) {
			w.Browser = append(w.Browser, b)
		}
	}
	for _, b := range s.AFK {
		if b.StartTime.Before(to) && (b.EndTime == nil || b.EndTime.After(from)) {
			w.AFK = append(w.AFK, b)
		}
	}
	for _, sess := range s.Sessions {
		if inRange(sess.StartTime, from, to) {
			w.Sessions = append(w.Sessions, sess)
		}
	}
	return w
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
