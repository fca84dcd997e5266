// Command traqctl is the operator CLI for a traq database: bulk assignment,
// metrics, daily stats, and project and pattern upkeep.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hmahadik/traq/internal/app"
	"github.com/hmahadik/traq/internal/config"
	"github.com/hmahadik/traq/internal/domain/timeline"
)

var version = "0.1.0"

// cli carries state shared by every subcommand.
type cli struct {
	app     *app.App
	asJSON  bool
	noColor bool
	dbPath  string
}

func main() {
	c := &cli{}
	err := newRootCmd(c).Execute()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The caller closes c when Execute returns.
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "traqctl",
		Short:         "Operate a traq activity database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.noColor || c.asJSON {
				color.NoColor = true
			}
			return c.open(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Output as JSON")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Database path (overrides TRAQ_DB_PATH)")

	root.AddGroup(
		&cobra.Group{ID: "assign", Title: "Assignment:"},
		&cobra.Group{ID: "catalog", Title: "Projects:"},
		&cobra.Group{ID: "report", Title: "Reports:"},
	)
	for _, cmd := range []*cobra.Command{backfillCmd(c), metricsCmd(c), discoverCmd(c)} {
		cmd.GroupID = "assign"
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{projectsCmd(c), patternsCmd(c)} {
		cmd.GroupID = "catalog"
		root.AddCommand(cmd)
	}
	stats := statsCmd(c)
	stats.GroupID = "report"
	root.AddCommand(stats)

	return root
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.dbPath != "" {
		cfg.DB.Path = c.dbPath
	}
	if dir := filepath.Dir(cfg.DB.Path); cfg.DB.Path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Only warnings reach the terminal; command output owns stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// emit prints v as indented JSON when --json is set, otherwise calls text.
func (c *cli) emit(w io.Writer, v any, text func(io.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// parseTime accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper bound
// means the end of that day.
func (c *cli) parseTime(value string, upper bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := timeline.ParseDate(value, c.app.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want YYYY-MM-DD or RFC3339", value)
	}
	if upper {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}
