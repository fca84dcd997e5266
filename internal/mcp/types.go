package mcp

import (
	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
)

// Time parameters accept RFC3339 timestamps or YYYY-MM-DD dates in the server time zone.

type DateParams struct {
	Date string `json:"date"`
}

type TimelineParams struct {
	Date               string `json:"date"`
	MinDurationSeconds int    `json:"min_duration_seconds,omitempty"`
	MergeSameApp       bool   `json:"merge_same_app,omitempty"`
	MergeGapSeconds    int    `json:"merge_gap_seconds,omitempty"`
}

type MonthParams struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type YearParams struct {
	Year int `json:"year"`
}

type RangeParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type IDParams struct {
	ID string `json:"id"`
}

type PatternParams struct {
	PatternType  project.PatternType `json:"pattern_type"`
	PatternValue string              `json:"pattern_value"`
	MatchType    project.MatchType   `json:"match_type"`
	Weight       float64             `json:"weight,omitempty"`
}

type CreateProjectParams struct {
	Name        string          `json:"name"`
	Color       string          `json:"color,omitempty"`
	Description string          `json:"description,omitempty"`
	Patterns    []PatternParams `json:"patterns,omitempty"`
}

type UpdateProjectParams struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

type DeleteProjectParams struct {
	ID         string  `json:"id"`
	ReassignTo *string `json:"reassign_to,omitempty"`
}

type ListPatternsParams struct {
	ProjectID string `json:"project_id"`
}

type AddPatternParams struct {
	ProjectID string `json:"project_id"`
	PatternParams
}

type UpdatePatternParams struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	PatternParams
}

type ReassignParams struct {
	Items []assignment.Reassignment `json:"items"`
}

type BackfillParams struct {
	Types   []activity.EventType `json:"types,omitempty"`
	From    string               `json:"from,omitempty"`
	To      string               `json:"to,omitempty"`
	Force   bool                 `json:"force,omitempty"`
	Preview bool                 `json:"preview,omitempty"`
}

type HistoryParams struct {
	EventType activity.EventType `json:"event_type,omitempty"`
	EventID   string             `json:"event_id,omitempty"`
	ProjectID string             `json:"project_id,omitempty"`
	From      string             `json:"from,omitempty"`
	To        string             `json:"to,omitempty"`
	Limit     int                `json:"limit,omitempty"`
}

type PreviewRuleParams struct {
	PatternParams
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	SampleSize int    `json:"sample_size,omitempty"`
}

type DiscoverParams struct {
	Since      string `json:"since,omitempty"`
	MinCommits int    `json:"min_commits,omitempty"`
}

type ListSessionsParams struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type PendingSummariesParams struct {
	Limit int `json:"limit,omitempty"`
}

type AttachSummaryParams struct {
	SessionID   string   `json:"session_id"`
	Summary     string   `json:"summary"`
	Explanation string   `json:"explanation,omitempty"`
	Confidence  string   `json:"confidence,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type GetSummaryParams struct {
	SessionID string `json:"session_id"`
}

type SetCategoryParams struct {
	App      string `json:"app"`
	Category string `json:"category"`
}

type DeleteCategoryParams struct {
	App string `json:"app"`
}

type ListActivityParams struct {
	Types      []activity.EventType `json:"types,omitempty"`
	From       string               `json:"from,omitempty"`
	To         string               `json:"to,omitempty"`
	Unassigned bool                 `json:"unassigned,omitempty"`
	AfterID    string               `json:"after_id,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
}

type GetActivityParams struct {
	EventType activity.EventType `json:"event_type"`
	EventID   string             `json:"event_id"`
}

// Responses

type SessionDetailResponse struct {
	Session session.Session  `json:"session"`
	Summary *session.Summary `json:"summary,omitempty"`
}

type CategoriesResponse struct {
	Categories map[string]string `json:"categories"`
}

type ActivityListResponse struct {
	Rows   []activity.Row `json:"rows"`
	NextID string         `json:"next_after_id,omitempty"`
}

type DiscoverResponse struct {
	Created []project.Project `json:"created"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
