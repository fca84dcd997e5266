package timeline

import (
	"strings"

	"golang.org/x/text/cases"
)

// defaultCategories seed the app mapping before stored overrides apply.
var defaultCategories = map[string]string{
	"code":               CategoryFocus,
	"visual studio code": CategoryFocus,
	"cursor":             CategoryFocus,
	"goland":             CategoryFocus,
	"intellij idea":      CategoryFocus,
	"pycharm":            CategoryFocus,
	"vim":                CategoryFocus,
	"nvim":               CategoryFocus,
	"emacs":              CategoryFocus,
	"terminal":           CategoryFocus,
	"iterm2":             CategoryFocus,
	"gnome-terminal":     CategoryFocus,
	"alacritty":          CategoryFocus,
	"kitty":              CategoryFocus,
	"wezterm":            CategoryFocus,
	"zoom":               CategoryMeetings,
	"zoom.us":            CategoryMeetings,
	"microsoft teams":    CategoryMeetings,
	"teams":              CategoryMeetings,
	"google meet":        CategoryMeetings,
	"webex":              CategoryMeetings,
	"slack":              CategoryComms,
	"discord":            CategoryComms,
	"mail":               CategoryComms,
	"thunderbird":        CategoryComms,
	"outlook":            CategoryComms,
	"telegram":           CategoryComms,
	"signal":             CategoryComms,
	"whatsapp":           CategoryComms,
}

// ValidCategory reports whether c can be assigned to an app.
func ValidCategory(c string) bool {
	for _, known := range ActivityCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Categorizer maps app names to categories.
// Lookup order: stored exact, stored folded, default folded, then "other".
type Categorizer struct {
	exact  map[string]string
	folded map[string]string
}

// NewCategorizer builds a Categorizer from stored overrides.
func NewCategorizer(stored map[string]string) Categorizer {
	c := Categorizer{exact: make(map[string]string, len(stored)), folded: make(map[string]string, len(stored)+len(defaultCategories))}
	caser := cases.Fold()
	for app, cat := range defaultCategories {
		c.folded[caser.String(app)] = cat
	}
	for app, cat := range stored {
		c.exact[app] = cat
		c.folded[caser.String(app)] = cat
	}
	return c
}

// Category returns the category of app.
func (c Categorizer) Category(app string) string {
	if app == "" {
		return CategoryOther
	}
	if cat, ok := c.exact[app]; ok {
		return cat
	}
	if cat, ok := c.folded[cases.Fold().String(strings.TrimSpace(app))]; ok {
		return cat
	}
	return CategoryOther
}

// Map returns the category for each app in apps.
func (c Categorizer) Map(apps []string) map[string]string {
	out := make(map[string]string, len(apps))
	for _, a := range apps {
		out[a] = c.Category(a)
	}
	return out
}
