package activity

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the table an activity row lives in.
type EventType string

const (
	TypeScreenshot EventType = "screenshot"
	TypeFocus      EventType = "focus"
	TypeShell      EventType = "shell"
	TypeGit        EventType = "git"
	TypeFile       EventType = "file"
	TypeBrowser    EventType = "browser"
)

// AllTypes lists every event type in a stable order.
var AllTypes = []EventType{TypeScreenshot, TypeFocus, TypeShell, TypeGit, TypeFile, TypeBrowser}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Source records who set a project linkage.
type Source string

const (
	SourceAuto     Source = "auto"
	SourceManual   Source = "manual"
	SourceBackfill Source = "backfill"
)

// Automatic reports whether the linkage was written by the engine rather than a user.
func (s Source) Automatic() bool {
	return s == SourceAuto || s == SourceBackfill
}

// Ref points at a single activity row.
type Ref struct {
	Type EventType `json:"event_type"`
	ID   string    `json:"event_id"`
}

// Linkage holds the mutable session and project fields shared by every activity row.
type Linkage struct {
	SessionID         *string  `json:"session_id,omitempty"`
	ProjectID         *string  `json:"project_id,omitempty"`
	ProjectConfidence *float64 `json:"project_confidence,omitempty"`
	ProjectSource     *Source  `json:"project_source,omitempty"`
}

// Assigned reports whether a project is linked.
func (l Linkage) Assigned() bool {
	return l.ProjectID != nil && *l.ProjectID != ""
}

// Manual reports whether the linkage was set by a user.
func (l Linkage) Manual() bool {
	return l.ProjectSource != nil && *l.ProjectSource == SourceManual
}

// Screenshot is a stored screen capture.
type Screenshot struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ImageRef       string    `json:"image_ref"`
	PerceptualHash string    `json:"perceptual_hash,omitempty"`
	WindowTitle    *string   `json:"window_title,omitempty"`
	AppName        *string   `json:"app_name,omitempty"`
	WindowX        int       `json:"window_x"`
	WindowY        int       `json:"window_y"`
	WindowWidth    int       `json:"window_width"`
	WindowHeight   int       `json:"window_height"`
	MonitorName    string    `json:"monitor_name,omitempty"`
	MonitorWidth   int       `json:"monitor_width"`
	MonitorHeight  int       `json:"monitor_height"`
	Linkage
}

// FocusEvent is a span during which one window held focus.
type FocusEvent struct {
	ID              string    `json:"id"`
	WindowTitle     string    `json:"window_title"`
	AppName         string    `json:"app_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	Linkage
}

// ShellCommand is one command captured from shell history.
type ShellCommand struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Command          string    `json:"command"`
	ShellType        string    `json:"shell_type,omitempty"`
	WorkingDirectory string    `json:"working_directory,omitempty"`
	ExitCode         int       `json:"exit_code"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Linkage
}

// GitCommit is a commit observed in a watched repository.
type GitCommit struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
	ShortHash  string    `json:"short_hash"`
	Message    string    `json:"message"`
	Repository string    `json:"repository"`
	RemoteURL  string    `json:"remote_url,omitempty"`
	RepoPath   string    `json:"repo_path,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	Insertions int       `json:"insertions"`
	Deletions  int       `json:"deletions"`
	Linkage
}

// FileEvent is a filesystem change in a watched directory.
type FileEvent struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"` // create, modify, delete, rename
	FilePath      string    `json:"file_path"`
	OldPath       string    `json:"old_path,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	WatchCategory string    `json:"watch_category,omitempty"`
	Linkage
}

// BrowserVisit is a page visit read from browser history.
type BrowserVisit struct {
	ID                   string    `json:"id"`
	Timestamp            time.Time `json:"timestamp"`
	URL                  string    `json:"url"`
	Title                string    `json:"title,omitempty"`
	Domain               string    `json:"domain,omitempty"`
	Browser              string    `json:"browser,omitempty"`
	VisitDurationSeconds int64     `json:"visit_duration_seconds"`
	Linkage
}

// Row is a type-erased view of any activity row, used by bulk passes.
type Row struct {
	Ref       Ref       `json:"ref"`
	Timestamp time.Time `json:"timestamp"`
	Linkage

	Screenshot *Screenshot   `json:"screenshot,omitempty"`
	Focus      *FocusEvent   `json:"focus,omitempty"`
	Shell      *ShellCommand `json:"shell,omitempty"`
	Git        *GitCommit    `json:"git,omitempty"`
	File       *FileEvent    `json:"file,omitempty"`
	Browser    *BrowserVisit `json:"browser,omitempty"`
}

// NewID returns a time-ordered identifier for a row observed at t.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences a nullable string.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
