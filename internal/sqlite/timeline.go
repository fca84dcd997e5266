package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/timeline"
)

// TimelineRepository implements timeline.Repository for SQLite
type TimelineRepository struct {
	db *DB
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Snapshot loads everything overlapping [from, to) inside one read transaction
func (r *TimelineRepository) Snapshot(ctx context.Context, from, to time.Time) (*timeline.Snapshot, error) {
	snap := &timeline.Snapshot{From: from, To: to}
	f, t := unix(from), unix(to)

	err := r.db.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.LatestWrite, err = latestWrite(ctx, tx); err != nil {
			return err
		}

		focus := activityTables[activity.TypeFocus]
		rows, err := listActivity(ctx, tx, activity.TypeFocus,
			focus.selectAll()+" WHERE start_time < ? AND end_time > ? ORDER BY start_time, id", t, f)
		if err != nil {
			return err
		}
		for _, row := range rows {
			snap.Focus = append(snap.Focus, *row.Focus)
		}

		for _, et := range []activity.EventType{activity.TypeShell, activity.TypeGit, activity.TypeFile, activity.TypeBrowser} {
			tbl := activityTables[et]
			rows, err := listActivity(ctx, tx, et,
				tbl.selectAll()+" WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp, id", f, t)
			if err != nil {
				return err
			}
			for _, row := range rows {
				switch et {
				case activity.TypeShell:
					snap.Shell = append(snap.Shell, *row.Shell)
				case activity.TypeGit:
					snap.Git = append(snap.Git, *row.Git)
				case activity.TypeFile:
					snap.Files = append(snap.Files, *row.File)
				case activity.TypeBrowser:
					snap.Browser = append(snap.Browser, *row.Browser)
				}
			}
		}

		if snap.Screenshots, err = screenshotTimes(ctx, tx, f, t); err != nil {
			return err
		}
		if snap.AFK, err = listAFK(ctx, tx,
			" WHERE start_time < ? AND (end_time IS NULL OR end_time > ?) ORDER BY start_time, id", t, f); err != nil {
			return err
		}
		if snap.Sessions, err = sessionsStartingIn(ctx, tx, from, to); err != nil {
			return err
		}
		if snap.Projects, err = projectInfo(ctx, tx); err != nil {
			return err
		}
		snap.Categories, err = appCategories(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func screenshotTimes(ctx context.Context, q queryer, from, to int64) ([]time.Time, error) {
	rows, err := q.QueryContext(ctx, "SELECT timestamp FROM screenshots WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshot times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan screenshot time: %w", err)
		}
		out = append(out, fromUnix(ts))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating screenshot rows: %w", err)
	}
	return out, nil
}

func projectInfo(ctx context.Context, q queryer) (map[string]timeline.ProjectInfo, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name, color FROM projects")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := make(map[string]timeline.ProjectInfo)
	for rows.Next() {
		var id string
		var info timeline.ProjectInfo
		if err := rows.Scan(&id, &info.Name, &info.Color); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out[id] = info
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return out, nil
}

func appCategories(ctx context.Context, q queryer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT app_name, category FROM app_categories")
	if err != nil {
		return nil, fmt.Errorf("failed to list app categories: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var app, category string
		if err := rows.Scan(&app, &category); err != nil {
			return nil, fmt.Errorf("failed to scan app category: %w", err)
		}
		out[app] = category
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return out, nil
}

// LatestWrite returns when aggregate inputs last changed, or the zero time
func (r *TimelineRepository) LatestWrite(ctx context.Context) (time.Time, error) {
	return latestWrite(ctx, r.db)
}

// ListAppCategories returns the stored app categories
func (r *TimelineRepository) ListAppCategories(ctx context.Context) (map[string]string, error) {
	return appCategories(ctx, r.db)
}

// SetAppCategory stores or replaces the category of an app
func (r *TimelineRepository) SetAppCategory(ctx context.Context, app, category string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO app_categories (app_name, category, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(app_name) DO UPDATE SET category = excluded.category, updated_at = excluded.updated_at
		`, app, category, unix(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to set app category: %w", err)
		}
		return bumpLatestWrite(ctx, tx)
	})
}

// DeleteAppCategory removes the stored category of an app. Removing a missing one is a no-op.
func (r *TimelineRepository) DeleteAppCategory(ctx context.Context, app string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM app_categories WHERE app_name = ?", app)
		if err != nil {
			return fmt.Errorf("failed to delete app category: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil
		}
		return bumpLatestWrite(ctx, tx)
	})
}
