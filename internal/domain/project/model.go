package project

import "time"

// Project is a bucket that activity is attributed to.
type Project struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Color             string    `json:"color"`
	Description       string    `json:"description,omitempty"`
	IsManual          bool      `json:"is_manual"`
	DetectionPatterns []Pattern `json:"detection_patterns,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProjectSummary is a lightweight representation for listing.
type ProjectSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Color         string    `json:"color"`
	Description   string    `json:"description,omitempty"`
	IsManual      bool      `json:"is_manual"`
	PatternCount  int       `json:"pattern_count"`
	ActivityCount int       `json:"activity_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// PatternType selects which context field a pattern is matched against.
type PatternType string

const (
	PatternApp         PatternType = "app"
	PatternWindowTitle PatternType = "window-title"
	PatternGitRepo     PatternType = "git-repo"
	PatternDomain      PatternType = "domain"
	PatternFilePath    PatternType = "file-path"
	PatternBranch      PatternType = "branch"
)

// MatchType selects how a pattern value is compared.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchPrefix   MatchType = "prefix"
	MatchSuffix   MatchType = "suffix"
	MatchRegex    MatchType = "regex"
	MatchGlob     MatchType = "glob"
)

// Weight bounds for learned and user patterns.
const (
	MinWeight     = 0.1
	MaxWeight     = 2.0
	LearnedGrowth = 1.1
)

// Pattern is a weighted detection rule belonging to a project.
type Pattern struct {
	ID           string      `json:"id"`
	ProjectID    string      `json:"project_id"`
	PatternType  PatternType `json:"pattern_type"`
	PatternValue string      `json:"pattern_value"`
	MatchType    MatchType   `json:"match_type"`
	Weight       float64     `json:"weight"`
	HitCount     int64       `json:"hit_count"`
	LastUsedAt   *time.Time  `json:"last_used_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Candidate is a project with its compiled patterns, ready for scoring.
type Candidate struct {
	Project  Project
	Matchers []*Matcher
}

// DeleteResult reports how many activity rows lost or changed their linkage.
type DeleteResult struct {
	ProjectID  string  `json:"project_id"`
	Cleared    int64   `json:"cleared"`
	Reassigned int64   `json:"reassigned"`
	ReassignTo *string `json:"reassign_to,omitempty"`
}

// Palette is the default color rotation for new projects.
var Palette = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#EC4899", "#06B6D4", "#84CC16", "#F97316", "#6366F1",
}
