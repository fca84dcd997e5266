package timeline

import (
	"context"
	"time"
)

// Repository reads aggregate inputs and manages stored app categories.
type Repository interface {
	// Snapshot loads rows overlapping [from, to) inside a single read transaction.
	Snapshot(ctx context.Context, from, to time.Time) (*Snapshot, error)
	// LatestWrite returns when activity data or app categories last changed.
	LatestWrite(ctx context.Context) (time.Time, error)

	ListAppCategories(ctx context.Context) (map[string]string, error)
	SetAppCategory(ctx context.Context, app, category string) error
	DeleteAppCategory(ctx context.Context, app string) error
}
