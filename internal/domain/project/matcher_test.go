package project_test

import (
	"testing"

	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name  string
		match project.MatchType
		value string
		input string
		want  bool
	}{
		{"exact folds case", project.MatchExact, "Traq", "TRAQ", true},
		{"exact rejects partial", project.MatchExact, "traq", "traq-web", false},
		{"contains", project.MatchContains, "jira", "PROJ-1 - Jira Software", true},
		{"prefix", project.MatchPrefix, "/home/dev/traq", "/home/dev/traq/main.go", true},
		{"suffix", project.MatchSuffix, ".go", "main.GO", true},
		{"regex anchors whole field", project.MatchRegex, "tr.q", "traq", true},
		{"regex does not match substring", project.MatchRegex, "tr.q", "my-traq", false},
		{"glob", project.MatchGlob, "/home/**/traq/*.go", "/home/dev/src/traq/main.go", true},
		{"glob miss", project.MatchGlob, "/home/**/traq/*.go", "/home/dev/other/main.go", false},
		{"empty input never matches", project.MatchContains, "x", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := project.Compile(project.Pattern{
				ID: "p", PatternType: project.PatternFilePath,
				PatternValue: tc.value, MatchType: tc.match, Weight: 1,
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, m.Match(tc.input))
		})
	}
}

func TestCompile_RejectsInvalid(t *testing.T) {
	cases := []project.Pattern{
		{PatternType: "keystroke", PatternValue: "x", MatchType: project.MatchExact, Weight: 1},
		{PatternType: project.PatternApp, PatternValue: "x", MatchType: "fuzzy", Weight: 1},
		{PatternType: project.PatternApp, PatternValue: " ", MatchType: project.MatchExact, Weight: 1},
		{PatternType: project.PatternApp, PatternValue: "x", MatchType: project.MatchExact, Weight: 0},
		{PatternType: project.PatternApp, PatternValue: "(", MatchType: project.MatchRegex, Weight: 1},
		{PatternType: project.PatternFilePath, PatternValue: "[", MatchType: project.MatchGlob, Weight: 1},
	}
	for _, p := range cases {
		_, err := project.Compile(p)
		require.ErrorIs(t, err, project.ErrInvalidPattern, "pattern %+v", p)
	}
}
