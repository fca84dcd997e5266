package assignment

import (
	"context"
	"time"

	"github.com/hmahadik/traq/internal/domain/project"
)

// Repository persists linkage writes and the history derived from them.
type Repository interface {
	// Apply writes linkage, history and pattern hits in one transaction and
	// returns how many rows changed.
	Apply(ctx context.Context, writes []Write) (int, error)
	Metrics(ctx context.Context, from, to time.Time) (*MetricCounts, error)
	History(ctx context.Context, opts HistoryOptions) ([]HistoryEntry, error)
	UnassignedRepos(ctx context.Context, since time.Time, minCommits int) ([]RepoActivity, error)
}

// Projects is the project catalog the engine scores against and learns into.
type Projects interface {
	Candidates(ctx context.Context) ([]project.Candidate, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.ProjectSummary, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Learn(ctx context.Context, in project.PatternInput) (*project.Pattern, error)
}
