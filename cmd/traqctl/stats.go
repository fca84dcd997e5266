package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmahadik/traq/internal/domain/timeline"
)

func statsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [YYYY-MM-DD]",
		Short: "Show active time, breaks and category split for a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().In(c.app.Location).Format(time.DateOnly)
			if len(args) == 1 {
				date = args[0]
			}
			stats, err := c.app.Timeline.DayStats(cmd.Context(), date)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), stats, func(w io.Writer) { renderDayStats(w, date, stats) })
		},
	}
}

func renderDayStats(w io.Writer, date string, s *timeline.DayStats) {
	fmt.Fprintln(w, titleColor.Sprint("Day ", date))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  active         %s\n", successColor.Sprint(formatSeconds(s.TotalSeconds)))
	fmt.Fprintf(w, "  breaks         %d (%s)\n", s.BreakCount, formatSeconds(s.BreakDuration))
	if s.LongestFocusStart != nil && s.LongestFocusEnd != nil {
		fmt.Fprintf(w, "  longest focus  %s %s\n", formatSeconds(s.LongestFocus),
			dimColor.Sprintf("%s-%s", s.LongestFocusStart.Format("15:04"), s.LongestFocusEnd.Format("15:04")))
	}
	if s.DaySpan != nil {
		fmt.Fprintf(w, "  span           %s-%s %s\n",
			s.DaySpan.StartTime.Format("15:04"), s.DaySpan.EndTime.Format("15:04"),
			dimColor.Sprintf("%.1fh", s.DaySpan.SpanHours))
	}
	if s.TimeSinceLastBreak >= 0 {
		fmt.Fprintf(w, "  since break    %s\n", formatSeconds(s.TimeSinceLastBreak))
	}

	if len(s.Breakdown) == 0 {
		return
	}
	categories := make([]string, 0, len(s.Breakdown))
	for cat := range s.Breakdown {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if s.Breakdown[categories[i]] != s.Breakdown[categories[j]] {
			return s.Breakdown[categories[i]] > s.Breakdown[categories[j]]
		}
		return categories[i] < categories[j]
	})
	fmt.Fprintln(w)
	for _, cat := range categories {
		fmt.Fprintf(w, "  %-14s %8s %s\n", cat, formatSeconds(s.Breakdown[cat]),
			dimColor.Sprintf("%5.1f%%", s.BreakdownPercent[cat]))
	}
}
