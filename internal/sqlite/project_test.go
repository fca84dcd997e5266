package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := &project.Project{
		ID:          "p1",
		Name:        "Traq",
		Color:       "#10B981",
		Description: "activity tracker",
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	require.NoError(t, repo.Create(ctx, proj))

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, proj.Name, retrieved.Name)
	require.Equal(t, proj.Color, retrieved.Color)
	require.Equal(t, proj.Description, retrieved.Description)
	require.True(t, base.Equal(retrieved.CreatedAt))

	byName, err := repo.GetByName(ctx, "TRAQ")
	require.NoError(t, err)
	require.Equal(t, "p1", byName.ID)

	_, err = repo.Get(ctx, "nonexistent")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_DuplicateNameIgnoresCase(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	insertProject(t, db, "p1", "Traq")

	err := repo.Create(context.Background(), &project.Project{ID: "p2", Name: "traq", Color: "#000000", CreatedAt: base, UpdatedAt: base})
	require.Equal(t, repository.ErrConflict, err)
}

func TestProjectRepository_ListCounts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	insertProject(t, db, "p2", "website")

	require.NoError(t, repo.CreatePattern(ctx, &project.Pattern{
		ID: "pat1", ProjectID: "p1", PatternType: project.PatternGitRepo, PatternValue: "traq",
		MatchType: project.MatchContains, Weight: 1, CreatedAt: base,
	}))
	pid := "p1"
	g := gitRow("g1", base, "traq")
	g.ProjectID = &pid
	insertRows(t, db, g, gitRow("g2", base.Add(time.Minute), "other"))

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "p1", summaries[0].ID)
	require.Equal(t, 1, summaries[0].PatternCount)
	require.Equal(t, 1, summaries[0].ActivityCount)
	require.Equal(t, 0, summaries[1].ActivityCount)
}

func TestProjectRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	insertProject(t, db, "p2", "website")

	proj, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	proj.Name = "Traq Engine"
	require.NoError(t, repo.Update(ctx, proj))

	proj.Name = "WEBSITE"
	require.Equal(t, repository.ErrConflict, repo.Update(ctx, proj))

	require.Equal(t, repository.ErrNotFound, repo.Update(ctx, &project.Project{ID: "missing", Name: "x"}))
}

func TestProjectRepository_DeleteClearsReferences(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")

	pid, src := "p1", activity.SourceAuto
	g := gitRow("g1", base, "traq")
	g.Linkage = activity.Linkage{ProjectID: &pid, ProjectSource: &src}
	f := focusRow("f1", base, time.Minute, "Code")
	f.Linkage = activity.Linkage{ProjectID: &pid, ProjectSource: &src}
	insertRows(t, db, g, f)

	res, err := repo.Delete(ctx, "p1", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Cleared)

	row, err := NewActivityRepository(db).Get(ctx, g.Ref)
	require.NoError(t, err)
	require.Nil(t, row.ProjectID)
	require.Nil(t, row.ProjectSource)

	_, err = repo.Get(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)

	_, err = repo.Delete(ctx, "p1", nil)
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_DeleteReassigns(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")
	insertProject(t, db, "p2", "website")

	pid, src := "p1", activity.SourceAuto
	g := gitRow("g1", base, "traq")
	g.Linkage = activity.Linkage{ProjectID: &pid, ProjectSource: &src}
	insertRows(t, db, g)

	target := "p2"
	res, err := repo.Delete(ctx, "p1", &target)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Reassigned)
	require.Equal(t, int64(0), res.Cleared)

	row, err := NewActivityRepository(db).Get(ctx, g.Ref)
	require.NoError(t, err)
	require.Equal(t, "p2", *row.ProjectID)
	require.Equal(t, activity.SourceAuto, *row.ProjectSource)

	history, err := NewAssignmentRepository(db).History(ctx, assignment.HistoryOptions{Ref: &g.Ref})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "p2", *history[0].ProjectID)
	require.Equal(t, "p1", *history[0].PreviousProjectID)
	require.Equal(t, activity.SourceAuto, history[0].Source)
	require.True(t, base.Equal(history[0].ActivityTime))
}

func TestProjectRepository_Patterns(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")

	p := &project.Pattern{
		ID: "pat1", ProjectID: "p1", PatternType: project.PatternApp, PatternValue: "Code",
		MatchType: project.MatchExact, Weight: 0.5, CreatedAt: base,
	}
	require.NoError(t, repo.CreatePattern(ctx, p))
	require.Equal(t, repository.ErrConflict, repo.CreatePattern(ctx, &project.Pattern{
		ID: "pat2", ProjectID: "p1", PatternType: project.PatternApp, PatternValue: "Code",
		MatchType: project.MatchExact, Weight: 1, CreatedAt: base,
	}))
	require.Equal(t, repository.ErrForeignKeyViolation, repo.CreatePattern(ctx, &project.Pattern{
		ID: "pat3", ProjectID: "missing", PatternType: project.PatternApp, PatternValue: "Code",
		MatchType: project.MatchExact, Weight: 1, CreatedAt: base,
	}))

	p.PatternValue = "Cursor"
	p.Weight = 0.8
	require.NoError(t, repo.UpdatePattern(ctx, p))
	got, err := repo.GetPattern(ctx, "pat1")
	require.NoError(t, err)
	require.Equal(t, "Cursor", got.PatternValue)
	require.Equal(t, 0.8, got.Weight)
	require.Nil(t, got.LastUsedAt)

	all, err := repo.ListAllPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.DeletePattern(ctx, "pat1"))
	require.Equal(t, repository.ErrNotFound, repo.DeletePattern(ctx, "pat1"))
	_, err = repo.GetPattern(ctx, "pat1")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_UpsertLearnedPatternGrowsToCap(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "traq")

	learned := func() *project.Pattern {
		return &project.Pattern{
			ProjectID: "p1", PatternType: project.PatternGitRepo, PatternValue: "traq",
			MatchType: project.MatchContains, Weight: 1.0, CreatedAt: base,
		}
	}

	first, err := repo.UpsertLearnedPattern(ctx, learned())
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, 1.0, first.Weight)

	second, err := repo.UpsertLearnedPattern(ctx, learned())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 1.1, second.Weight, 1e-9)

	var last *project.Pattern
	for i := 0; i < 20; i++ {
		last, err = repo.UpsertLearnedPattern(ctx, learned())
		require.NoError(t, err)
	}
	require.Equal(t, project.MaxWeight, last.Weight)

	patterns, err := repo.ListPatterns(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
}
