package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/timeline"
)

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &cli{}
	t.Cleanup(func() { _ = c.close() })
	cmd := newRootCmd(c)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, c.close())
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("TRAQ_CONFIG_PATH", "")
	t.Setenv("TRAQ_TIMEZONE", "UTC")
	return filepath.Join(t.TempDir(), "traq.db")
}

func TestProjectsAndPatterns(t *testing.T) {
	db := setup(t)

	out, err := run(t, db, "projects", "create", "traq", "--color", "#10B981", "--json")
	require.NoError(t, err)
	var created project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, "traq", created.Name)
	require.Equal(t, "#10B981", created.Color)

	_, err = run(t, db, "patterns", "add", created.ID, "git-repo", "traq", "--match", "contains")
	require.NoError(t, err)

	out, err = run(t, db, "projects", "list", "--json")
	require.NoError(t, err)
	var listed []project.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, 1, listed[0].PatternCount)

	out, err = run(t, db, "patterns", "list", created.ID)
	require.NoError(t, err)
	require.Contains(t, out, "git-repo")
	require.Contains(t, out, "never used")

	_, err = run(t, db, "patterns", "add", created.ID, "git-repo", "(", "--match", "regex")
	require.ErrorIs(t, err, project.ErrInvalidPattern)

	out, err = run(t, db, "projects", "delete", created.ID)
	require.NoError(t, err)
	require.Contains(t, out, "cleared 0 rows")

	_, err = run(t, db, "projects", "show", created.ID)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestBackfillAndMetrics(t *testing.T) {
	db := setup(t)

	out, err := run(t, db, "backfill", "--preview", "--json")
	require.NoError(t, err)
	var res assignment.BackfillResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Preview)
	require.Zero(t, res.TotalProcessed)

	out, err = run(t, db, "backfill", "--types", "git,shell", "--from", "2026-01-01", "--to", "2026-01-31")
	require.NoError(t, err)
	require.Contains(t, out, "processed")

	_, err = run(t, db, "backfill", "--types", "carrier-pigeon")
	require.ErrorIs(t, err, assignment.ErrInvalidInput)

	_, err = run(t, db, "backfill", "--from", "yesterday")
	require.Error(t, err)

	out, err = run(t, db, "metrics", "--from", "2026-01-01", "--to", "2026-01-31")
	require.NoError(t, err)
	require.Contains(t, out, "2026-01-01 to 2026-01-31")
	require.Contains(t, out, "n/a")
}

func TestDiscoverDisabledByDefault(t *testing.T) {
	db := setup(t)

	_, err := run(t, db, "discover")
	require.ErrorIs(t, err, assignment.ErrDiscoveryDisabled)

	t.Setenv("TRAQ_AUTO_DISCOVER", "true")
	out, err := run(t, db, "discover")
	require.NoError(t, err)
	require.Contains(t, out, "No new repositories found")
}

func TestStats(t *testing.T) {
	db := setup(t)

	out, err := run(t, db, "stats", "2026-03-02", "--json")
	require.NoError(t, err)
	var stats timeline.DayStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Zero(t, stats.TotalSeconds)

	_, err = run(t, db, "stats", "03/02/2026")
	require.ErrorIs(t, err, timeline.ErrInvalidDate)
}

func TestFormatSeconds(t *testing.T) {
	require.Equal(t, "40s", formatSeconds(40))
	require.Equal(t, "12m", formatSeconds(12*60+5))
	require.Equal(t, "1h05m", formatSeconds(3900))
}
