package assignment_test

import (
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func candidate(t *testing.T, id string, patterns ...project.Pattern) project.Candidate {
	t.Helper()
	matchers := make([]*project.Matcher, 0, len(patterns))
	for _, p := range patterns {
		p.ProjectID = id
		m, err := project.Compile(p)
		require.NoError(t, err)
		matchers = append(matchers, m)
	}
	return project.Candidate{Project: project.Project{ID: id, Name: "project " + id}, Matchers: matchers}
}

func pattern(id string, t project.PatternType, value string, m project.MatchType, w float64) project.Pattern {
	return project.Pattern{ID: id, PatternType: t, PatternValue: value, MatchType: m, Weight: w}
}

func TestScorer_GitRepoExactHighWeight(t *testing.T) {
	s := assignment.Scorer{Ceiling: assignment.DefaultCeiling, MinConfidence: 0.1}
	c := candidate(t, "p1", pattern("a", project.PatternGitRepo, "traq", project.MatchExact, 10))

	res, ok := s.Assign(assignment.Context{GitRepo: "traq"}, []project.Candidate{c})
	require.True(t, ok)
	require.Equal(t, "p1", res.ProjectID)
	require.Equal(t, 1.0, res.Confidence)
	require.Equal(t, 10.0, res.Score)
	require.Equal(t, []string{"a"}, res.PatternIDs)
}

func TestScorer_ConfidenceScalesWithCeiling(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3, MinConfidence: 0.1}
	c := candidate(t, "p1",
		pattern("a", project.PatternApp, "code", project.MatchExact, 0.5),
		pattern("b", project.PatternWindowTitle, "traq", project.MatchContains, 1.0),
	)
	res, ok := s.Assign(assignment.Context{AppName: "Code", WindowTitle: "main.go - traq"}, []project.Candidate{c})
	require.True(t, ok)
	require.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestScorer_BelowFloorIsNoMatch(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3, MinConfidence: 0.5}
	c := candidate(t, "p1", pattern("a", project.PatternApp, "code", project.MatchExact, 0.3))
	_, ok := s.Assign(assignment.Context{AppName: "code"}, []project.Candidate{c})
	require.False(t, ok)

	_, ok = s.Assign(assignment.Context{AppName: "vim"}, []project.Candidate{c})
	require.False(t, ok)
}

func TestScorer_TieBrokenByRecency(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3}
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	pa := pattern("a", project.PatternApp, "code", project.MatchExact, 5)
	pa.LastUsedAt = &older
	pb := pattern("b", project.PatternApp, "code", project.MatchExact, 5)
	pb.LastUsedAt = &newer

	a := candidate(t, "alpha", pa)
	b := candidate(t, "beta", pb)

	for _, order := range [][]project.Candidate{{a, b}, {b, a}} {
		res, ok := s.Assign(assignment.Context{AppName: "code"}, order)
		require.True(t, ok)
		require.Equal(t, "beta", res.ProjectID)
	}
}

func TestScorer_TieBreakOrder(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3}
	ctx := assignment.Context{AppName: "code", WindowTitle: "traq"}

	// equal scores, one strong pattern beats two weak ones
	strong := candidate(t, "z", pattern("a", project.PatternApp, "code", project.MatchExact, 2))
	split := candidate(t, "a",
		pattern("b", project.PatternApp, "code", project.MatchExact, 1),
		pattern("c", project.PatternWindowTitle, "traq", project.MatchExact, 1),
	)
	res, ok := s.Assign(ctx, []project.Candidate{split, strong})
	require.True(t, ok)
	require.Equal(t, "z", res.ProjectID)

	// fully tied, lowest id wins
	x := candidate(t, "x", pattern("d", project.PatternApp, "code", project.MatchExact, 1))
	y := candidate(t, "y", pattern("e", project.PatternApp, "code", project.MatchExact, 1))
	res, ok = s.Assign(ctx, []project.Candidate{y, x})
	require.True(t, ok)
	require.Equal(t, "x", res.ProjectID)
}

func TestScorer_DeterministicUnderPatternReordering(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3}
	ps := []project.Pattern{
		pattern("a", project.PatternApp, "code", project.MatchExact, 0.1),
		pattern("b", project.PatternWindowTitle, "traq", project.MatchContains, 0.2),
		pattern("c", project.PatternFilePath, "/src/**", project.MatchGlob, 0.3),
	}
	ctx := assignment.Context{AppName: "code", WindowTitle: "traq - code", FilePath: "/src/traq/main.go"}

	forward, ok := s.Assign(ctx, []project.Candidate{candidate(t, "p", ps[0], ps[1], ps[2])})
	require.True(t, ok)
	backward, ok := s.Assign(ctx, []project.Candidate{candidate(t, "p", ps[2], ps[1], ps[0])})
	require.True(t, ok)
	require.Equal(t, forward, backward)
}

func TestScorer_DomainFallsBackToURL(t *testing.T) {
	s := assignment.Scorer{Ceiling: 3}
	c := candidate(t, "p1", pattern("a", project.PatternDomain, "jira.example.com", project.MatchContains, 1))
	res, ok := s.Assign(assignment.Context{URL: "https://jira.example.com/browse/X-1"}, []project.Candidate{c})
	require.True(t, ok)
	require.Equal(t, "p1", res.ProjectID)
}
