package capture

import (
	"context"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/dedup"
	"github.com/hmahadik/traq/internal/domain/session"
)

// Commit is everything one observation changes, written in a single transaction.
type Commit struct {
	// Transitions are applied in order before Row is inserted.
	Transitions []session.Transition
	// Row is nil for lock signals, ticks and discarded screenshots.
	Row *activity.Row
	// Assignment records the automatic linkage on Row, with its pattern hits.
	Assignment *assignment.Write
	LastSeen   time.Time
}

// Empty reports whether the commit writes nothing but the clock.
func (c *Commit) Empty() bool {
	return len(c.Transitions) == 0 && c.Row == nil
}

// Repository persists ingest commits.
type Repository interface {
	Commit(ctx context.Context, c *Commit) error
	// LastStoredScreenshots returns the newest stored screenshot of each stream.
	LastStoredScreenshots(ctx context.Context) (map[string]dedup.Previous, error)
}

// Suggester proposes a project for a context.
type Suggester interface {
	Suggest(ctx context.Context, c assignment.Context) (assignment.Result, bool, error)
	// Invalidate drops cached candidates.
	Invalidate()
}
