package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/repository"
	"github.com/stretchr/testify/require"
)

func manualWrite(ref activity.Ref, at time.Time, projectID string) assignment.Write {
	w := assignment.Write{Ref: ref, Source: activity.SourceManual, ActivityTime: at, At: at.Add(time.Hour)}
	if projectID != "" {
		conf := 1.0
		w.ProjectID, w.Confidence = &projectID, &conf
	}
	return w
}

func autoWrite(ref activity.Ref, at time.Time, projectID string, source activity.Source) assignment.Write {
	w := assignment.AutoWrite(ref, at, assignment.Result{ProjectID: projectID, Confidence: 0.5}, source)
	w.At = at.Add(time.Minute)
	return w
}

func TestAssignmentRepository_AutomaticWritesSkipManualRows(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	insertProject(t, db, "p2", "website")
	g1, g2 := gitRow("g1", base, "traq"), gitRow("g2", base.Add(time.Minute), "traq")
	insertRows(t, db, g1, g2)

	repo := NewAssignmentRepository(db)
	n, err := repo.Apply(ctx, []assignment.Write{manualWrite(g1.Ref, g1.Timestamp, "p2")})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = repo.Apply(ctx, []assignment.Write{
		autoWrite(g1.Ref, g1.Timestamp, "p1", activity.SourceBackfill),
		autoWrite(g2.Ref, g2.Timestamp, "p1", activity.SourceBackfill),
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	activities := NewActivityRepository(db)
	row, err := activities.Get(ctx, g1.Ref)
	require.NoError(t, err)
	require.Equal(t, "p2", *row.ProjectID)
	require.True(t, row.Manual())

	row, err = activities.Get(ctx, g2.Ref)
	require.NoError(t, err)
	require.Equal(t, "p1", *row.ProjectID)
	require.Equal(t, activity.SourceBackfill, *row.ProjectSource)
}

func TestAssignmentRepository_ApplyRollsBackOnMissingRow(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	g1 := gitRow("g1", base, "traq")
	insertRows(t, db, g1)

	repo := NewAssignmentRepository(db)
	_, err := repo.Apply(ctx, []assignment.Write{
		manualWrite(g1.Ref, g1.Timestamp, "p1"),
		manualWrite(activity.Ref{Type: activity.TypeGit, ID: "missing"}, base, "p1"),
	})
	require.ErrorIs(t, err, repository.ErrNotFound)

	row, err := NewActivityRepository(db).Get(ctx, g1.Ref)
	require.NoError(t, err)
	require.Nil(t, row.ProjectID)
}

func TestAssignmentRepository_UnassignIsManual(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	g1 := gitRow("g1", base, "traq")
	insertRows(t, db, g1)

	repo := NewAssignmentRepository(db)
	_, err := repo.Apply(ctx, []assignment.Write{autoWrite(g1.Ref, g1.Timestamp, "p1", activity.SourceAuto)})
	require.NoError(t, err)
	_, err = repo.Apply(ctx, []assignment.Write{manualWrite(g1.Ref, g1.Timestamp, "")})
	require.NoError(t, err)

	row, err := NewActivityRepository(db).Get(ctx, g1.Ref)
	require.NoError(t, err)
	require.False(t, row.Assigned())
	require.True(t, row.Manual())

	history, err := repo.History(ctx, assignment.HistoryOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Nil(t, history[0].ProjectID, "newest first")
	require.Equal(t, "p1", *history[0].PreviousProjectID)
	require.Equal(t, activity.SourceAuto, *history[0].PreviousSource)
}

func TestAssignmentRepository_Metrics(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	insertProject(t, db, "p2", "website")

	var rows []activity.Row
	for i, id := range []string{"g1", "g2", "g3", "g4"} {
		rows = append(rows, gitRow(id, base.Add(time.Duration(i)*time.Minute), "traq"))
	}
	outside := gitRow("g5", base.Add(48*time.Hour), "traq")
	insertRows(t, db, append(rows, outside)...)

	repo := NewAssignmentRepository(db)
	writes := []assignment.Write{
		autoWrite(rows[0].Ref, rows[0].Timestamp, "p1", activity.SourceAuto),
		autoWrite(rows[1].Ref, rows[1].Timestamp, "p1", activity.SourceAuto),
		autoWrite(rows[2].Ref, rows[2].Timestamp, "p1", activity.SourceBackfill),
		autoWrite(outside.Ref, outside.Timestamp, "p1", activity.SourceAuto),
	}
	_, err := repo.Apply(ctx, writes)
	require.NoError(t, err)

	// the same row re-scored counts once
	_, err = repo.Apply(ctx, []assignment.Write{autoWrite(rows[0].Ref, rows[0].Timestamp, "p1", activity.SourceBackfill)})
	require.NoError(t, err)

	_, err = repo.Apply(ctx, []assignment.Write{
		manualWrite(rows[1].Ref, rows[1].Timestamp, "p2"), // correction
		manualWrite(rows[2].Ref, rows[2].Timestamp, "p1"), // confirmation
		manualWrite(rows[3].Ref, rows[3].Timestamp, "p2"), // first assignment
	})
	require.NoError(t, err)

	counts, err := repo.Metrics(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, counts.AutoAssigned)
	require.Equal(t, 3, counts.UserAssigned)
	require.Equal(t, 1, counts.Corrections)
}

func TestAssignmentRepository_UnassignedRepos(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")

	var rows []activity.Row
	for i := 0; i < 3; i++ {
		rows = append(rows, gitRow("w"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute), "website"))
	}
	rows = append(rows, gitRow("t1", base, "traq"), gitRow("old", base.AddDate(0, -6, 0), "website"))
	pid := "p1"
	rows[3].ProjectID = &pid
	insertRows(t, db, rows...)

	repos, err := NewAssignmentRepository(db).UnassignedRepos(ctx, base.AddDate(0, 0, -90), 2)
	require.NoError(t, err)
	require.Equal(t, []assignment.RepoActivity{{Repository: "website", Commits: 3}}, repos)
}
