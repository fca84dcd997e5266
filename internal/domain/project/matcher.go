package project

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
)

// Matcher is a validated pattern with any compiled state it needs.
// Match never fails once a Matcher exists.
type Matcher struct {
	Pattern Pattern

	folded string
	re     *regexp.Regexp
}

// ValidPatternType reports whether t is a known pattern type.
func ValidPatternType(t PatternType) bool {
	switch t {
	case PatternApp, PatternWindowTitle, PatternGitRepo, PatternDomain, PatternFilePath, PatternBranch:
		return true
	}
	return false
}

// ValidMatchType reports whether m is a known match type.
func ValidMatchType(m MatchType) bool {
	switch m {
	case MatchExact, MatchContains, MatchPrefix, MatchSuffix, MatchRegex, MatchGlob:
		return true
	}
	return false
}

// Compile validates p and prepares it for matching.
func Compile(p Pattern) (*Matcher, error) {
	if !ValidPatternType(p.PatternType) {
		return nil, fmt.Errorf("%w: unknown pattern type %q", ErrInvalidPattern, p.PatternType)
	}
	if !ValidMatchType(p.MatchType) {
		return nil, fmt.Errorf("%w: unknown match type %q", ErrInvalidPattern, p.MatchType)
	}
	value := strings.TrimSpace(p.PatternValue)
	if value == "" {
		return nil, fmt.Errorf("%w: empty pattern value", ErrInvalidPattern)
	}
	if p.Weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidPattern)
	}

	m := &Matcher{Pattern: p, folded: fold(value)}
	switch p.MatchType {
	case MatchRegex:
		re, err := regexp.Compile(`(?i)^(?:` + value + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		m.re = re
	case MatchGlob:
		if !doublestar.ValidatePattern(m.folded) {
			return nil, fmt.Errorf("%w: malformed glob %q", ErrInvalidPattern, value)
		}
	}
	return m, nil
}

// Match compares a context field value against the pattern, ignoring case.
func (m *Matcher) Match(value string) bool {
	if value == "" {
		return false
	}
	if m.re != nil {
		return m.re.MatchString(value)
	}
	v := fold(value)
	switch m.Pattern.MatchType {
	case MatchExact:
		return v == m.folded
	case MatchContains:
		return strings.Contains(v, m.folded)
	case MatchPrefix:
		return strings.HasPrefix(v, m.folded)
	case MatchSuffix:
		return strings.HasSuffix(v, m.folded)
	case MatchGlob:
		ok, err := doublestar.Match(m.folded, v)
		return err == nil && ok
	}
	return false
}

// CompileAll compiles patterns, skipping any that fail validation.
// Stored patterns were validated on write, so a failure here means the row was edited out of band.
func CompileAll(patterns []Pattern) ([]*Matcher, []error) {
	matchers := make([]*Matcher, 0, len(patterns))
	var errs []error
	for _, p := range patterns {
		m, err := Compile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %s: %w", p.ID, err))
			continue
		}
		matchers = append(matchers, m)
	}
	return matchers, errs
}

// fold uses a fresh Caser per call; a Caser must not be shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}
