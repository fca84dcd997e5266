package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/session"
)

// DefaultStream names the capture stream of screenshots without a monitor.
const DefaultStream = "default"

// LockSignal reports that the machine was locked or went to sleep.
type LockSignal struct {
	Timestamp time.Time           `json:"timestamp"`
	Trigger   session.TriggerType `json:"trigger"`
}

// Observation is one collector event. Exactly one field is set.
type Observation struct {
	Screenshot *activity.Screenshot   `json:"screenshot,omitempty"`
	Focus      *activity.FocusEvent   `json:"focus,omitempty"`
	Shell      *activity.ShellCommand `json:"shell,omitempty"`
	Git        *activity.GitCommit    `json:"git,omitempty"`
	File       *activity.FileEvent    `json:"file,omitempty"`
	Browser    *activity.BrowserVisit `json:"browser,omitempty"`
	Lock       *LockSignal            `json:"lock,omitempty"`
}

// Kind returns the event type, or "lock" for lock signals.
func (o Observation) Kind() string {
	switch {
	case o.Screenshot != nil:
		return string(activity.TypeScreenshot)
	case o.Focus != nil:
		return string(activity.TypeFocus)
	case o.Shell != nil:
		return string(activity.TypeShell)
	case o.Git != nil:
		return string(activity.TypeGit)
	case o.File != nil:
		return string(activity.TypeFile)
	case o.Browser != nil:
		return string(activity.TypeBrowser)
	case o.Lock != nil:
		return "lock"
	}
	return ""
}

// Timestamp is the moment the observation proves the user was present.
// A focus span proves presence when focus moved away, at its end.
func (o Observation) Timestamp() time.Time {
	switch {
	case o.Screenshot != nil:
		return o.Screenshot.Timestamp
	case o.Focus != nil:
		return o.Focus.EndTime
	case o.Shell != nil:
		return o.Shell.Timestamp
	case o.Git != nil:
		return o.Git.Timestamp
	case o.File != nil:
		return o.File.Timestamp
	case o.Browser != nil:
		return o.Browser.Timestamp
	case o.Lock != nil:
		return o.Lock.Timestamp
	}
	return time.Time{}
}

// Stream is the dedup stream of a screenshot.
func (o Observation) Stream() string {
	if o.Screenshot == nil || o.Screenshot.MonitorName == "" {
		return DefaultStream
	}
	return o.Screenshot.MonitorName
}

func norm(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Normalize validates o and returns a copy with UTC second-precision times,
// derived fields filled in and ids assigned. Linkage fields from collectors are discarded.
func Normalize(o Observation) (Observation, error) {
	set := 0
	for _, present := range []bool{o.Screenshot != nil, o.Focus != nil, o.Shell != nil, o.Git != nil, o.File != nil, o.Browser != nil, o.Lock != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return Observation{}, fmt.Errorf("%w: expected exactly one event, got %d", ErrInvalidObservation, set)
	}
	if o.Timestamp().IsZero() {
		return Observation{}, fmt.Errorf("%w: %s timestamp is required", ErrInvalidObservation, o.Kind())
	}

	var out Observation
	switch {
	case o.Screenshot != nil:
		s := *o.Screenshot
		if strings.TrimSpace(s.ImageRef) == "" {
			return Observation{}, fmt.Errorf("%w: screenshot image_ref is required", ErrInvalidObservation)
		}
		s.Timestamp = norm(s.Timestamp)
		s.ID = idFor(s.ID, s.Timestamp)
		s.Linkage = activity.Linkage{}
		out.Screenshot = &s
	case o.Focus != nil:
		f := *o.Focus
		if f.StartTime.IsZero() || f.EndTime.Before(f.StartTime) {
			return Observation{}, fmt.Errorf("%w: focus span must have start <= end", ErrInvalidObservation)
		}
		f.StartTime, f.EndTime = norm(f.StartTime), norm(f.EndTime)
		f.DurationSeconds = f.EndTime.Sub(f.StartTime).Seconds()
		f.ID = idFor(f.ID, f.StartTime)
		f.Linkage = activity.Linkage{}
		out.Focus = &f
	case o.Shell != nil:
		c := *o.Shell
		if strings.TrimSpace(c.Command) == "" {
			return Observation{}, fmt.Errorf("%w: shell command is required", ErrInvalidObservation)
		}
		c.Timestamp = norm(c.Timestamp)
		c.ID = idFor(c.ID, c.Timestamp)
		c.Linkage = activity.Linkage{}
		out.Shell = &c
	case o.Git != nil:
		g := *o.Git
		if strings.TrimSpace(g.Hash) == "" {
			return Observation{}, fmt.Errorf("%w: git commit hash is required", ErrInvalidObservation)
		}
		if g.ShortHash == "" {
			g.ShortHash = g.Hash
			if len(g.ShortHash) > 7 {
				g.ShortHash = g.ShortHash[:7]
			}
		}
		if g.Repository == "" {
			g.Repository = assignment.RepoName(g.RemoteURL)
		}
		if g.Repository == "" {
			g.Repository = assignment.RepoName(g.RepoPath)
		}
		g.Timestamp = norm(g.Timestamp)
		g.ID = idFor(g.ID, g.Timestamp)
		g.Linkage = activity.Linkage{}
		out.Git = &g
	case o.File != nil:
		f := *o.File
		if strings.TrimSpace(f.FilePath) == "" {
			return Observation{}, fmt.Errorf("%w: file path is required", ErrInvalidObservation)
		}
		if f.EventType == "" {
			f.EventType = "modify"
		}
		f.Timestamp = norm(f.Timestamp)
		f.ID = idFor(f.ID, f.Timestamp)
		f.Linkage = activity.Linkage{}
		out.File = &f
	case o.Browser != nil:
		b := *o.Browser
		if strings.TrimSpace(b.URL) == "" {
			return Observation{}, fmt.Errorf("%w: browser url is required", ErrInvalidObservation)
		}
		if b.Domain == "" {
			b.Domain = assignment.Domain(b.URL)
		}
		b.Timestamp = norm(b.Timestamp)
		b.ID = idFor(b.ID, b.Timestamp)
		b.Linkage = activity.Linkage{}
		out.Browser = &b
	case o.Lock != nil:
		l := *o.Lock
		if l.Trigger == "" {
			l.Trigger = session.TriggerSystemSleep
		}
		if !l.Trigger.Valid() || l.Trigger == session.TriggerIdleTimeout {
			return Observation{}, fmt.Errorf("%w: lock trigger %q", ErrInvalidObservation, l.Trigger)
		}
		l.Timestamp = norm(l.Timestamp)
		out.Lock = &l
	}
	return out, nil
}

func idFor(id string, t time.Time) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return activity.NewID(t)
}

// Row converts a normalized activity observation to a storable row.
// It returns false for lock signals.
func (o Observation) Row() (activity.Row, bool) {
	row := activity.Row{Timestamp: o.Timestamp()}
	switch {
	case o.Screenshot != nil:
		row.Ref = activity.Ref{Type: activity.TypeScreenshot, ID: o.Screenshot.ID}
		row.Screenshot = o.Screenshot
	case o.Focus != nil:
		row.Ref = activity.Ref{Type: activity.TypeFocus, ID: o.Focus.ID}
		row.Timestamp = o.Focus.StartTime
		row.Focus = o.Focus
	case o.Shell != nil:
		row.Ref = activity.Ref{Type: activity.TypeShell, ID: o.Shell.ID}
		row.Shell = o.Shell
	case o.Git != nil:
		row.Ref = activity.Ref{Type: activity.TypeGit, ID: o.Git.ID}
		row.Git = o.Git
	case o.File != nil:
		row.Ref = activity.Ref{Type: activity.TypeFile, ID: o.File.ID}
		row.File = o.File
	case o.Browser != nil:
		row.Ref = activity.Ref{Type: activity.TypeBrowser, ID: o.Browser.ID}
		row.Browser = o.Browser
	default:
		return activity.Row{}, false
	}
	return row, true
}

// setLinkage writes l to the row and its payload.
func setLinkage(row *activity.Row, l activity.Linkage) {
	row.Linkage = l
	switch {
	case row.Screenshot != nil:
		row.Screenshot.Linkage = l
	case row.Focus != nil:
		row.Focus.Linkage = l
	case row.Shell != nil:
		row.Shell.Linkage = l
	case row.Git != nil:
		row.Git.Linkage = l
	case row.File != nil:
		row.File.Linkage = l
	case row.Browser != nil:
		row.Browser.Linkage = l
	}
}
