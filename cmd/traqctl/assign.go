package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
)

func backfillCmd(c *cli) *cobra.Command {
	var (
		types    []string
		from, to string
		force    bool
		preview  bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Assign projects to unassigned activity in bulk",
		Long: `Run the assignment engine over stored activity.

Rows with a manual assignment are never touched. --force also revisits rows
that already carry an automatic assignment.

Examples:
  traqctl backfill --preview
  traqctl backfill --types git,shell --from 2026-01-01
  traqctl backfill --force --to 2026-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := assignment.BackfillOptions{Force: force, Preview: preview}
			for _, t := range types {
				opts.Types = append(opts.Types, activity.EventType(strings.TrimSpace(t)))
			}
			var err error
			if opts.From, err = c.parseTime(from, false); err != nil {
				return err
			}
			if opts.To, err = c.parseTime(to, true); err != nil {
				return err
			}

			res, err := c.app.Engine.Backfill(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) { renderBackfill(w, res) })
		},
	}

	cmd.Flags().StringSliceVarP(&types, "types", "t", nil, "Event types (default all)")
	cmd.Flags().StringVar(&from, "from", "", "Start of range")
	cmd.Flags().StringVar(&to, "to", "", "End of range")
	cmd.Flags().BoolVar(&force, "force", false, "Revisit automatic assignments")
	cmd.Flags().BoolVar(&preview, "preview", false, "Report without writing")
	return cmd
}

func metricsCmd(c *cli) *cobra.Command {
	var (
		from, to string
		days     int
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show assignment accuracy for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := c.parseTime(to, true)
			if err != nil {
				return err
			}
			if end.IsZero() {
				end = time.Now().In(c.app.Location)
			}
			start, err := c.parseTime(from, false)
			if err != nil {
				return err
			}
			if start.IsZero() {
				start = end.AddDate(0, 0, -days)
			}

			m, err := c.app.Engine.Metrics(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), m, func(w io.Writer) { renderMetrics(w, m) })
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start of range")
	cmd.Flags().StringVar(&to, "to", "", "End of range (default now)")
	cmd.Flags().IntVar(&days, "days", 30, "Days back from --to when --from is unset")
	return cmd
}

func discoverCmd(c *cli) *cobra.Command {
	var (
		since      string
		minCommits int
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Create projects for repositories with unassigned commits",
		Long: `Create one project per git repository that has at least --min-commits
unassigned commits since --since, each with a git-repo pattern.

Discovery must be enabled with TRAQ_AUTO_DISCOVER=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := c.parseTime(since, false)
			if err != nil {
				return err
			}
			created, err := c.app.Engine.AutoDiscover(cmd.Context(), assignment.DiscoverOptions{
				Since:      start,
				MinCommits: minCommits,
			})
			if err != nil {
				return err
			}
			if created == nil {
				created = []project.Project{}
			}
			return c.emit(cmd.OutOrStdout(), created, func(w io.Writer) { renderDiscovered(w, created) })
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only count commits after this time (default 90 days ago)")
	cmd.Flags().IntVar(&minCommits, "min-commits", 0, "Minimum unassigned commits (default from config)")
	return cmd
}

func renderBackfill(w io.Writer, res *assignment.BackfillResult) {
	title := "Backfill"
	if res.Preview {
		title += " (preview)"
	}
	fmt.Fprintln(w, titleColor.Sprint(title))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  processed         %s\n", humanize.Comma(int64(res.TotalProcessed)))
	fmt.Fprintf(w, "  auto assigned     %s\n", successColor.Sprint(humanize.Comma(int64(res.AutoAssigned))))
	fmt.Fprintf(w, "  already assigned  %s\n", humanize.Comma(int64(res.AlreadyAssigned)))
	fmt.Fprintf(w, "  no match          %s\n", dimColor.Sprint(humanize.Comma(int64(res.NoMatch))))
	if res.Failed > 0 {
		fmt.Fprintf(w, "  failed            %s\n", warnColor.Sprint(humanize.Comma(int64(res.Failed))))
	}
	if res.Cancelled {
		fmt.Fprintln(w, warnColor.Sprint("  cancelled before completion"))
	}
	if len(res.Items) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, item := range res.Items {
		fmt.Fprintf(w, "  %-10s %s -> %s %s\n",
			item.Ref.Type, dimColor.Sprint(item.Ref.ID), item.ProjectName, formatConfidence(item.Confidence))
	}
}

func renderMetrics(w io.Writer, m *assignment.Metrics) {
	fmt.Fprintln(w, titleColor.Sprint("Assignment metrics"))
	fmt.Fprintf(w, "%s\n", dimColor.Sprintf("%s to %s", m.PeriodStart.Format(time.DateOnly), m.PeriodEnd.Format(time.DateOnly)))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  activities     %s\n", humanize.Comma(int64(m.TotalActivities)))
	fmt.Fprintf(w, "  auto assigned  %s\n", humanize.Comma(int64(m.AutoAssigned)))
	fmt.Fprintf(w, "  user assigned  %s\n", humanize.Comma(int64(m.UserAssigned)))
	fmt.Fprintf(w, "  corrections    %s\n", humanize.Comma(int64(m.Corrections)))
	if m.AccuracyRate == nil {
		fmt.Fprintf(w, "  accuracy       %s\n", dimColor.Sprint("n/a"))
		return
	}
	fmt.Fprintf(w, "  accuracy       %s\n", successColor.Sprintf("%.1f%%", *m.AccuracyRate*100))
}

func renderDiscovered(w io.Writer, created []project.Project) {
	if len(created) == 0 {
		fmt.Fprintln(w, "No new repositories found")
		return
	}
	fmt.Fprintln(w, titleColor.Sprintf("Created %d project(s)", len(created)))
	fmt.Fprintln(w, rule)
	for _, p := range created {
		fmt.Fprintf(w, "  %s %s\n", successColor.Sprint("+"), p.Name)
		for _, pat := range p.DetectionPatterns {
			fmt.Fprintf(w, "      %s\n", dimColor.Sprintf("%s %s %q", pat.PatternType, pat.MatchType, pat.PatternValue))
		}
	}
}
