package assignment

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/project"
)

// Context is the matchable view of one activity row.
type Context struct {
	AppName     string `json:"app_name,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	URL         string `json:"url,omitempty"`
	GitRepo     string `json:"git_repo,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// Empty reports whether no field is set.
func (c Context) Empty() bool {
	return c == Context{}
}

// Fields returns the values a pattern type is matched against, in order of preference.
func (c Context) Fields(t project.PatternType) []string {
	switch t {
	case project.PatternApp:
		return []string{c.AppName}
	case project.PatternWindowTitle:
		return []string{c.WindowTitle}
	case project.PatternGitRepo:
		return []string{c.GitRepo}
	case project.PatternDomain:
		return []string{c.Domain, c.URL}
	case project.PatternFilePath:
		return []string{c.FilePath}
	case project.PatternBranch:
		return []string{c.BranchName}
	}
	return nil
}

// FromRow builds a context from whichever payload the row carries.
func FromRow(row activity.Row) Context {
	switch {
	case row.Screenshot != nil:
		return FromScreenshot(row.Screenshot)
	case row.Focus != nil:
		return FromFocus(row.Focus)
	case row.Shell != nil:
		return FromShell(row.Shell)
	case row.Git != nil:
		return FromGit(row.Git)
	case row.File != nil:
		return FromFile(row.File)
	case row.Browser != nil:
		return FromBrowser(row.Browser)
	}
	return Context{}
}

func FromScreenshot(s *activity.Screenshot) Context {
	return windowContext(activity.StringValue(s.AppName), activity.StringValue(s.WindowTitle))
}

func FromFocus(f *activity.FocusEvent) Context {
	return windowContext(f.AppName, f.WindowTitle)
}

func FromShell(c *activity.ShellCommand) Context {
	return Context{AppName: c.ShellType, FilePath: c.WorkingDirectory}
}

func FromGit(g *activity.GitCommit) Context {
	repo := g.Repository
	if repo == "" {
		repo = RepoName(g.RemoteURL)
	}
	if repo == "" {
		repo = RepoName(g.RepoPath)
	}
	return Context{GitRepo: repo, BranchName: g.Branch, FilePath: g.RepoPath}
}

func FromFile(f *activity.FileEvent) Context {
	return Context{FilePath: f.FilePath}
}

func FromBrowser(b *activity.BrowserVisit) Context {
	domain := b.Domain
	if domain == "" {
		domain = Domain(b.URL)
	}
	return Context{AppName: b.Browser, WindowTitle: b.Title, URL: b.URL, Domain: domain}
}

func windowContext(app, title string) Context {
	c := Context{AppName: app, WindowTitle: title}
	if IsBrowser(app) {
		c.URL = urlInText.FindString(title)
		c.Domain = Domain(c.URL)
	}
	return c
}

var urlInText = regexp.MustCompile(`https?://[^\s]+`)

var browsers = []string{"chrome", "firefox", "safari", "brave", "edge", "chromium", "opera", "vivaldi"}

// IsBrowser reports whether an app name looks like a web browser.
func IsBrowser(app string) bool {
	lower := strings.ToLower(app)
	for _, b := range browsers {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

// Domain returns the lower-cased host of raw, or "" when it has none.
func Domain(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// RepoName reduces a remote URL or checkout path to the repository name.
//
//	https://github.com/user/traq.git -> traq
//	git@github.com:user/traq.git     -> traq
//	/home/dev/src/traq               -> traq
func RepoName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	ref = strings.TrimSuffix(strings.TrimRight(ref, "/"), ".git")
	name := path.Base(ref)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == "/" {
		return ""
	}
	return strings.ToLower(name)
}
