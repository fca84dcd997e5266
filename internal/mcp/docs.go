package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `traq records desktop activity and answers questions about where the time went.

Core concepts:
- Activity: screenshots, window focus, shell commands, git commits, file events and browser visits.
  Every row is addressed by (event_type, event_id) and may carry a session and a project.
- Session: a span of continuous activity. AFK blocks sit between sessions; short sessions are merged or dropped.
- Project: a named bucket with detection patterns. Patterns score activity; the best project above the
  confidence floor wins. Manual assignments are never overwritten by automatic ones.
- Read models: day timeline grid, day/week/month/year stats, custom ranges, comparisons and a heatmap.

Default workflow:
1) Orient: get_day_stats or get_timeline for a date (YYYY-MM-DD, server time zone).
2) Zoom out: get_week_stats / get_month_stats / get_year_stats / get_custom_range / compare_periods.
3) Attribute time: list_projects, then get_project for its patterns.
4) Fix attribution: reassign specific events, or add_pattern then backfill. Use preview_rule and
   backfill with preview=true before committing broad rules.
5) Audit: get_assignment_metrics and get_assignment_history.
6) Summaries: list_pending_summaries, then attach_summary for each closed session.

Docs:
- traq://docs/index
- traq://docs/assignment
- traq://docs/sessions
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "traq://docs/index",
		Name:        "docs_index",
		Title:       "traq docs index",
		Description: "Entry point: what the tools return and which doc to read next.",
		Content: `# traq: Agent Docs Index

## Tools by question

- What did I do on a day? ` + "`get_timeline`" + ` (grid) or ` + "`get_day_stats`" + ` (numbers).
- How does this week/month/year look? ` + "`get_week_stats`, `get_month_stats`, `get_year_stats`" + `.
- How does a period compare to the one before it? ` + "`compare_periods`" + `.
- Where is the raw data? ` + "`list_activity`, `get_activity`" + `.

## Time parameters

- Dates are YYYY-MM-DD in the server time zone.
- Ranges are half-open: from is inclusive, to is exclusive.
- RFC3339 timestamps are accepted wherever a range is.

## Read next

- traq://docs/assignment for projects, patterns and backfill.
- traq://docs/sessions for sessions, AFK and summaries.
`,
	},
	{
		URI:         "traq://docs/assignment",
		Name:        "docs_assignment",
		Title:       "Projects, patterns and assignment",
		Description: "How activity is scored against project patterns and how to correct it.",
		Content: `# Projects, patterns and assignment

## Scoring

- A pattern has a type (app, window-title, git-repo, domain, file-path, branch), a match type
  (exact, contains, prefix, suffix, regex, glob) and a weight in [0.1, 2.0].
- Matching ignores case. A project's score is the sum of its matching pattern weights.
- Confidence is score divided by the ceiling, capped at 1. Below the floor nothing is assigned.
- Ties: higher score, then stronger single pattern, then most recently used pattern, then lowest project id.

## Sources

- auto: assigned during capture.
- backfill: assigned by a backfill run.
- manual: assigned or unassigned by a person. Automatic writes never replace manual ones.

## Correcting

- ` + "`reassign`" + ` writes manual assignments. When learning is enabled it also grows patterns from the event.
- ` + "`preview_rule`" + ` shows what a new pattern would match before you add it.
- ` + "`backfill`" + ` with preview=true reports would-be assignments without writing.
- ` + "`get_assignment_metrics`" + ` counts corrections: manual writes that changed an automatic project.
`,
	},
	{
		URI:         "traq://docs/sessions",
		Name:        "docs_sessions",
		Title:       "Sessions, AFK and summaries",
		Description: "How activity is split into sessions and how summaries are handed off.",
		Content: `# Sessions, AFK and summaries

- Activity separated by more than the AFK timeout starts a new session; the gap becomes an AFK block.
- Locking the screen or sleeping starts AFK immediately.
- Sessions never cross local midnight.
- A session shorter than the minimum is merged into the previous one across a short break,
  or dropped and recorded as a gap across a real break.
- Open sessions have no end_time.

## Summaries

1) ` + "`list_pending_summaries`" + ` returns closed sessions with no summary.
2) ` + "`attach_summary`" + ` stores summary, explanation, confidence and tags as given.
3) ` + "`get_session`" + ` returns the session with its summary.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
