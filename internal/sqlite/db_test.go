package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func insertProject(t *testing.T, db *DB, id, name string) {
	t.Helper()
	err := NewProjectRepository(db).Create(context.Background(), &project.Project{
		ID: id, Name: name, Color: "#3B82F6", CreatedAt: base, UpdatedAt: base,
	})
	require.NoError(t, err)
}

func insertRows(t *testing.T, db *DB, rows ...activity.Row) {
	t.Helper()
	repo := NewIngestRepository(db)
	for i := range rows {
		require.NoError(t, repo.Commit(context.Background(), &capture.Commit{Row: &rows[i], LastSeen: rows[i].Timestamp}))
	}
}

func gitRow(id string, at time.Time, repo string) activity.Row {
	return activity.Row{
		Ref:       activity.Ref{Type: activity.TypeGit, ID: id},
		Timestamp: at,
		Git: &activity.GitCommit{
			ID: id, Timestamp: at, Hash: "abcdef1234567", ShortHash: "abcdef1",
			Message: "commit " + id, Repository: repo,
		},
	}
}

func focusRow(id string, start time.Time, d time.Duration, app string) activity.Row {
	return activity.Row{
		Ref:       activity.Ref{Type: activity.TypeFocus, ID: id},
		Timestamp: start,
		Focus: &activity.FocusEvent{
			ID: id, AppName: app, WindowTitle: app + " window",
			StartTime: start, EndTime: start.Add(d), DurationSeconds: d.Seconds(),
		},
	}
}

func screenshotRow(id string, at time.Time, monitor, hash string) activity.Row {
	return activity.Row{
		Ref:       activity.Ref{Type: activity.TypeScreenshot, ID: id},
		Timestamp: at,
		Screenshot: &activity.Screenshot{
			ID: id, Timestamp: at, ImageRef: "shots/" + id + ".webp",
			PerceptualHash: hash, MonitorName: monitor,
		},
	}
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"project_patterns",
		"sessions",
		"afk_blocks",
		"session_gaps",
		"session_summaries",
		"screenshots",
		"focus_events",
		"shell_commands",
		"git_commits",
		"file_events",
		"browser_visits",
		"assignment_history",
		"app_categories",
		"engine_meta",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, len(migrations), version)

	// a second run is a no-op
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestBumpLatestWrite_StrictlyIncreasing(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	first, err := latestWrite(ctx, db)
	require.NoError(t, err)
	require.True(t, first.IsZero())

	var seen []time.Time
	for i := 0; i < 5; i++ {
		require.NoError(t, bumpLatestWrite(ctx, db))
		lw, err := latestWrite(ctx, db)
		require.NoError(t, err)
		seen = append(seen, lw)
	}
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i].After(seen[i-1]), "write %d did not advance", i)
	}
}

func TestIsBusy(t *testing.T) {
	require.False(t, isBusy(nil))
	require.False(t, isBusy(context.Canceled))
}
