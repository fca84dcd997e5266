package assignment

import (
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/project"
)

// DefaultCeiling is the score that maps to full confidence.
const DefaultCeiling = 3.0

// Config controls the assignment engine.
type Config struct {
	Ceiling            float64
	MinConfidence      float64
	Learning           bool
	CacheTTL           time.Duration
	BatchSize          int
	AutoDiscover       bool
	DiscoverMinCommits int
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{
		Ceiling:            DefaultCeiling,
		MinConfidence:      0.1,
		Learning:           true,
		CacheTTL:           30 * time.Second,
		BatchSize:          200,
		AutoDiscover:       false,
		DiscoverMinCommits: 5,
	}
}

// Write is one linkage change for an activity row.
// A nil ProjectID unassigns. Automatic writes never replace a manual linkage.
type Write struct {
	Ref          activity.Ref
	ProjectID    *string
	Confidence   *float64
	Source       activity.Source
	ActivityTime time.Time
	PatternIDs   []string
	At           time.Time
}

// HistoryEntry is one recorded linkage change.
type HistoryEntry struct {
	ID                int64            `json:"id"`
	Ref               activity.Ref     `json:"ref"`
	ProjectID         *string          `json:"project_id,omitempty"`
	PreviousProjectID *string          `json:"previous_project_id,omitempty"`
	Source            activity.Source  `json:"source"`
	PreviousSource    *activity.Source `json:"previous_source,omitempty"`
	Confidence        *float64         `json:"confidence,omitempty"`
	ActivityTime      time.Time        `json:"activity_time"`
	CreatedAt         time.Time        `json:"created_at"`
}

// HistoryOptions filters history listings.
type HistoryOptions struct {
	Ref       *activity.Ref
	ProjectID string
	From      time.Time
	To        time.Time
	Limit     int
}

// MetricCounts are the stored tallies behind Metrics, counted per distinct event.
type MetricCounts struct {
	AutoAssigned int
	UserAssigned int
	Corrections  int
}

// Metrics reports assignment accuracy for a period.
// AccuracyRate is nil when nothing was assigned automatically.
type Metrics struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	TotalActivities int       `json:"total_activities"`
	AutoAssigned    int       `json:"auto_assigned"`
	UserAssigned    int       `json:"user_assigned"`
	Corrections     int       `json:"corrections"`
	AccuracyRate    *float64  `json:"accuracy_rate"`
}

// BackfillOptions selects rows for a bulk pass.
type BackfillOptions struct {
	Types   []activity.EventType
	From    time.Time
	To      time.Time
	Force   bool
	Preview bool
}

// BackfillItem is one would-be or committed assignment.
type BackfillItem struct {
	Ref         activity.Ref `json:"ref"`
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	Confidence  float64      `json:"confidence"`
	Reason      string       `json:"reason"`
}

// BackfillResult tallies a bulk pass. It is returned even when the pass is cancelled.
type BackfillResult struct {
	TotalProcessed  int            `json:"total_processed"`
	AutoAssigned    int            `json:"auto_assigned"`
	AlreadyAssigned int            `json:"already_assigned"`
	NoMatch         int            `json:"no_match"`
	Failed          int            `json:"failed"`
	Cancelled       bool           `json:"cancelled"`
	Preview         bool           `json:"preview"`
	Items           []BackfillItem `json:"items,omitempty"`
}

// Reassignment moves one row to a project. An empty ProjectID unassigns.
type Reassignment struct {
	EventType activity.EventType `json:"event_type"`
	EventID   string             `json:"event_id"`
	ProjectID string             `json:"project_id"`
}

// ReassignResult reports a bulk manual reassignment.
type ReassignResult struct {
	Updated int `json:"updated"`
	Learned int `json:"learned"`
}

// RulePreviewRequest describes a pattern to try against history.
type RulePreviewRequest struct {
	PatternType  project.PatternType
	PatternValue string
	MatchType    project.MatchType
	From         time.Time
	To           time.Time
	SampleSize   int
}

// RuleSample is one activity row a rule would match.
type RuleSample struct {
	Ref       activity.Ref `json:"ref"`
	Timestamp time.Time    `json:"timestamp"`
	Value     string       `json:"value"`
	ProjectID *string      `json:"project_id,omitempty"`
}

// RulePreview summarizes what a rule would match.
type RulePreview struct {
	MatchCount int          `json:"match_count"`
	Scanned    int          `json:"scanned"`
	Samples    []RuleSample `json:"samples"`
}

// RepoActivity counts unassigned commits for one repository.
type RepoActivity struct {
	Repository string
	Commits    int
}
