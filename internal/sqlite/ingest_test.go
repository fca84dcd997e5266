package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestIngestRepository_LastStoredScreenshots(t *testing.T) {
	db := NewTestDB(t)
	insertRows(t, db,
		screenshotRow("a1", base, "", "d:0000000000000001"),
		screenshotRow("a2", base.Add(time.Minute), "", "d:0000000000000002"),
		screenshotRow("a3", base.Add(2*time.Minute), "", ""),
		screenshotRow("b1", base.Add(30*time.Second), "HDMI-1", "d:00000000000000ff"),
	)

	last, err := NewIngestRepository(db).LastStoredScreenshots(context.Background())
	require.NoError(t, err)
	require.Len(t, last, 2)
	// the unhashed a3 is the newest capture of its stream
	require.Empty(t, last[capture.DefaultStream].Hash)
	require.True(t, base.Add(2*time.Minute).Equal(last[capture.DefaultStream].Timestamp))
	require.Equal(t, "d:00000000000000ff", last["HDMI-1"].Hash)
}

func TestIngestRepository_CommitIsAtomic(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIngestRepository(db)
	insertRows(t, db, gitRow("g1", base, "traq"))

	end := base.Add(time.Minute)
	dup := gitRow("g1", end, "traq")
	err := repo.Commit(ctx, &capture.Commit{
		Transitions: []session.Transition{{
			Kind:    session.SessionOpened,
			Session: &session.Session{ID: "s1", StartTime: end, CreatedAt: end},
		}},
		Row:      &dup,
		LastSeen: end,
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = NewSessionRepository(db).Get(ctx, "s1")
	require.Equal(t, repository.ErrNotFound, err, "session insert rolled back")

	rs, err := NewSessionRepository(db).LoadRestoreState(ctx)
	require.NoError(t, err)
	require.True(t, base.Equal(rs.LastSeen), "clock not advanced")
}

func TestIngestRepository_CommitRecordsAssignment(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	projects := NewProjectRepository(db)
	require.NoError(t, projects.CreatePattern(ctx, &project.Pattern{
		ID: "pat1", ProjectID: "p1", PatternType: project.PatternGitRepo, PatternValue: "traq",
		MatchType: project.MatchContains, Weight: 1, CreatedAt: base,
	}))

	before, err := NewTimelineRepository(db).LatestWrite(ctx)
	require.NoError(t, err)

	row := gitRow("g1", base, "traq")
	w := assignment.AutoWrite(row.Ref, row.Timestamp, assignment.Result{
		ProjectID: "p1", Confidence: 1.0 / 3, PatternIDs: []string{"pat1"},
	}, activity.SourceAuto)
	w.At = base.Add(time.Second)
	row.Linkage = activity.Linkage{ProjectID: w.ProjectID, ProjectConfidence: w.Confidence, ProjectSource: &w.Source}

	require.NoError(t, NewIngestRepository(db).Commit(ctx, &capture.Commit{Row: &row, Assignment: &w, LastSeen: base}))

	p, err := projects.GetPattern(ctx, "pat1")
	require.NoError(t, err)
	require.Equal(t, int64(1), p.HitCount)
	require.True(t, base.Add(time.Second).Equal(*p.LastUsedAt))

	history, err := NewAssignmentRepository(db).History(ctx, assignment.HistoryOptions{Ref: &row.Ref})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Nil(t, history[0].PreviousProjectID)
	require.Equal(t, activity.SourceAuto, history[0].Source)

	after, err := NewTimelineRepository(db).LatestWrite(ctx)
	require.NoError(t, err)
	require.True(t, after.After(before))
}

func TestIngestRepository_ClockOnlyCommitKeepsLatestWrite(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertRows(t, db, gitRow("g1", base, "traq"))
	timeline := NewTimelineRepository(db)

	before, err := timeline.LatestWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, NewIngestRepository(db).Commit(ctx, &capture.Commit{LastSeen: base.Add(time.Minute)}))
	after, err := timeline.LatestWrite(ctx)
	require.NoError(t, err)
	require.True(t, before.Equal(after))
}
