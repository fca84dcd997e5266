package assignment

import (
	"strings"

	"github.com/hmahadik/traq/internal/domain/project"
)

// Weights given to patterns learned from a manual assignment.
const (
	learnedAppWeight     = 0.5
	learnedRepoWeight    = 1.0
	learnedKeywordWeight = 0.3
	learnedDomainWeight  = 0.7
	maxLearnedKeywords   = 3
)

var genericApps = []string{"gnome-shell", "plasmashell", "explorer", "finder", "desktop"}

var genericDomains = []string{
	"google.com", "github.com", "stackoverflow.com", "youtube.com",
	"twitter.com", "facebook.com", "linkedin.com", "reddit.com",
	"amazon.com", "wikipedia.org",
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"new": true, "tab": true, "untitled": true, "file": true, "edit": true,
	"view": true, "help": true, "window": true, "document": true,
	"google": true, "chrome": true, "firefox": true, "safari": true,
}

// LearnedPatterns derives the patterns a manual assignment teaches.
func LearnedPatterns(projectID string, c Context) []project.PatternInput {
	var out []project.PatternInput
	add := func(t project.PatternType, value string, m project.MatchType, w float64) {
		out = append(out, project.PatternInput{
			ProjectID: projectID, PatternType: t, PatternValue: value, MatchType: m, Weight: w,
		})
	}

	if c.AppName != "" && !isGenericApp(c.AppName) {
		add(project.PatternApp, strings.ToLower(c.AppName), project.MatchExact, learnedAppWeight)
	}
	if repo := RepoName(c.GitRepo); repo != "" {
		add(project.PatternGitRepo, repo, project.MatchContains, learnedRepoWeight)
	}
	for _, kw := range Keywords(c.WindowTitle) {
		add(project.PatternWindowTitle, kw, project.MatchContains, learnedKeywordWeight)
	}
	if c.Domain != "" && !isGenericDomain(c.Domain) {
		add(project.PatternDomain, strings.ToLower(c.Domain), project.MatchContains, learnedDomainWeight)
	}
	return out
}

// Keywords pulls up to three distinctive words from a window title.
func Keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, "[]()-:.,|/\\\"'")
		if len(w) < 4 || stopWords[w] {
			continue
		}
		if strings.Contains(w, ".com") || strings.Contains(w, ".org") ||
			strings.Contains(w, "http") || strings.Contains(w, "www") {
			continue
		}
		out = append(out, w)
		if len(out) == maxLearnedKeywords {
			break
		}
	}
	return out
}

func isGenericApp(app string) bool {
	lower := strings.ToLower(app)
	for _, g := range genericApps {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

func isGenericDomain(domain string) bool {
	lower := strings.ToLower(domain)
	for _, g := range genericDomains {
		if lower == g || strings.HasSuffix(lower, "."+g) {
			return true
		}
	}
	return false
}
