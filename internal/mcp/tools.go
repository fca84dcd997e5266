package mcp

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

var (
	eventTypes   = []string{"screenshot", "focus", "shell", "git", "file", "browser"}
	patternTypes = []string{"app", "window-title", "git-repo", "domain", "file-path", "branch"}
	matchTypes   = []string{"exact", "contains", "prefix", "suffix", "regex", "glob"}
	categories   = []string{"focus", "meetings", "comms", "other"}
)

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values []string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func array(description string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": description, "items": items}
}

func patternProps(props map[string]any) map[string]any {
	props["pattern_type"] = enum("Which activity field the pattern reads", patternTypes)
	props["pattern_value"] = str("Value to match; a regex or doublestar glob for those match types")
	props["match_type"] = enum("How the value is compared (case-insensitive)", matchTypes)
	props["weight"] = number("Score contributed on match, 0.1 to 2.0 (default 1.0)")
	return props
}

func rangeProps(props map[string]any) map[string]any {
	props["from"] = str("Range start, RFC3339 or YYYY-MM-DD (inclusive)")
	props["to"] = str("Range end, RFC3339 or YYYY-MM-DD (exclusive)")
	return props
}

// buildToolCatalog returns all available MCP tools.
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Timeline
		{
			Name:        "get_timeline",
			Description: "Get the hourly grid of one day: activity blocks, AFK, sessions, day stats and top apps",
			InputSchema: object(map[string]any{
				"date":                 str("Day in YYYY-MM-DD"),
				"min_duration_seconds": integer("Hide blocks shorter than this"),
				"merge_same_app":       boolean("Join consecutive blocks of the same app"),
				"merge_gap_seconds":    integer("Largest gap bridged when merging the same app"),
			}, "date"),
			ReadOnly: true,
		},
		{
			Name:        "get_day_stats",
			Description: "Get active time, breaks, focus metrics and category breakdown of one day",
			InputSchema: object(map[string]any{"date": str("Day in YYYY-MM-DD")}, "date"),
			ReadOnly:    true,
		},
		{
			Name:        "get_week_stats",
			Description: "Get per-day totals for the Monday-started week containing a date",
			InputSchema: object(map[string]any{"date": str("Any day of the week, YYYY-MM-DD")}, "date"),
			ReadOnly:    true,
		},
		{
			Name:        "get_month_stats",
			Description: "Get per-day totals and weekly subtotals of a calendar month",
			InputSchema: object(map[string]any{
				"year":  integer("Four digit year"),
				"month": integer("Month number, 1 to 12"),
			}, "year", "month"),
			ReadOnly: true,
		},
		{
			Name:        "get_year_stats",
			Description: "Get monthly totals, the busiest month and day, and streaks for a year",
			InputSchema: object(map[string]any{"year": integer("Four digit year")}, "year"),
			ReadOnly:    true,
		},
		{
			Name:        "get_custom_range",
			Description: "Aggregate an arbitrary range; the bucket size follows the range length",
			InputSchema: object(rangeProps(map[string]any{}), "from", "to"),
			ReadOnly:    true,
		},
		{
			Name:        "compare_periods",
			Description: "Compare a range with the equally long period right before it",
			InputSchema: object(rangeProps(map[string]any{}), "from", "to"),
			ReadOnly:    true,
		},
		{
			Name:        "get_heatmap",
			Description: "Get per-day active time and intensity (0 to 4) for a calendar month",
			InputSchema: object(map[string]any{
				"year":  integer("Four digit year"),
				"month": integer("Month number, 1 to 12"),
			}, "year", "month"),
			ReadOnly: true,
		},
		{
			Name:        "get_categories",
			Description: "List the stored app to category overrides",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "set_category",
			Description: "Set the category of an app",
			InputSchema: object(map[string]any{
				"app":      str("Application name as captured"),
				"category": enum("Category", categories),
			}, "app", "category"),
		},
		{
			Name:        "delete_category",
			Description: "Remove the stored category of an app, restoring the default",
			InputSchema: object(map[string]any{"app": str("Application name as captured")}, "app"),
		},

		// Projects
		{
			Name:        "list_projects",
			Description: "List projects with pattern and activity counts",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_project",
			Description: "Get a project with its detection patterns",
			InputSchema: object(map[string]any{"id": str("Project ID")}, "id"),
			ReadOnly:    true,
		},
		{
			Name:        "create_project",
			Description: "Create a project, optionally with initial detection patterns",
			InputSchema: object(map[string]any{
				"name":        str("Unique project name (case-insensitive)"),
				"color":       str("Hex color like #3B82F6; a palette color is picked when omitted"),
				"description": str("Project description"),
				"patterns": array("Initial detection patterns", object(patternProps(map[string]any{}),
					"pattern_type", "pattern_value", "match_type")),
			}, "name"),
		},
		{
			Name:        "update_project",
			Description: "Change the name, color or description of a project",
			InputSchema: object(map[string]any{
				"id":          str("Project ID"),
				"name":        str("New name"),
				"color":       str("New hex color"),
				"description": str("New description"),
			}, "id"),
		},
		{
			Name:        "delete_project",
			Description: "Delete a project, clearing or reassigning every activity linked to it",
			InputSchema: object(map[string]any{
				"id":          str("Project ID"),
				"reassign_to": str("Project that inherits the activity (omit to unassign)"),
			}, "id"),
		},

		// Patterns
		{
			Name:        "list_patterns",
			Description: "List the detection patterns of a project",
			InputSchema: object(map[string]any{"project_id": str("Project ID")}, "project_id"),
			ReadOnly:    true,
		},
		{
			Name:        "add_pattern",
			Description: "Add a detection pattern to a project",
			InputSchema: object(patternProps(map[string]any{"project_id": str("Project ID")}),
				"project_id", "pattern_type", "pattern_value", "match_type"),
		},
		{
			Name:        "update_pattern",
			Description: "Replace the rule of a detection pattern",
			InputSchema: object(patternProps(map[string]any{
				"id":         str("Pattern ID"),
				"project_id": str("Owning project ID"),
			}), "id", "project_id", "pattern_type", "pattern_value", "match_type"),
		},
		{
			Name:        "delete_pattern",
			Description: "Delete a detection pattern",
			InputSchema: object(map[string]any{"id": str("Pattern ID")}, "id"),
		},
		{
			Name:        "preview_rule",
			Description: "Count and sample the activity a candidate pattern would match, without saving it",
			InputSchema: object(rangeProps(patternProps(map[string]any{
				"sample_size": integer("Number of sample matches to return (default 5)"),
			})), "pattern_type", "pattern_value"),
			ReadOnly: true,
		},

		// Assignment
		{
			Name:        "reassign",
			Description: "Manually assign activity to a project; an empty project_id unassigns",
			InputSchema: object(map[string]any{
				"items": array("Events to reassign", object(map[string]any{
					"event_type": enum("Activity type", eventTypes),
					"event_id":   str("Activity ID"),
					"project_id": str("Target project ID, empty to unassign"),
				}, "event_type", "event_id")),
			}, "items"),
		},
		{
			Name:        "backfill",
			Description: "Run pattern matching over stored activity; preview reports assignments without writing",
			InputSchema: object(rangeProps(map[string]any{
				"types":   array("Activity types to scan (default all)", enum("Activity type", eventTypes)),
				"force":   boolean("Also rescore rows already assigned automatically"),
				"preview": boolean("Score without committing"),
			})),
		},
		{
			Name:        "get_assignment_metrics",
			Description: "Get automatic, manual and corrected assignment counts with the accuracy rate",
			InputSchema: object(rangeProps(map[string]any{}), "from", "to"),
			ReadOnly:    true,
		},
		{
			Name:        "get_assignment_history",
			Description: "List assignment writes, newest first",
			InputSchema: object(rangeProps(map[string]any{
				"event_type": enum("Filter by activity type", eventTypes),
				"event_id":   str("Filter by activity ID"),
				"project_id": str("Filter by new or previous project"),
				"limit":      integer("Maximum entries (default 100)"),
			})),
			ReadOnly: true,
		},
		{
			Name:        "discover_projects",
			Description: "Create projects for git repositories with enough unassigned commits",
			InputSchema: object(map[string]any{
				"since":       str("Only count commits after this time"),
				"min_commits": integer("Commit threshold (default from config)"),
			}),
		},

		// Sessions
		{
			Name:        "list_sessions",
			Description: "List sessions overlapping a range",
			InputSchema: object(rangeProps(map[string]any{"limit": integer("Maximum sessions")})),
			ReadOnly:    true,
		},
		{
			Name:        "list_afk_blocks",
			Description: "List AFK blocks overlapping a range",
			InputSchema: object(rangeProps(map[string]any{"limit": integer("Maximum blocks")})),
			ReadOnly:    true,
		},
		{
			Name:        "list_gaps",
			Description: "List dropped short sessions recorded as gaps",
			InputSchema: object(rangeProps(map[string]any{"limit": integer("Maximum gaps")})),
			ReadOnly:    true,
		},
		{
			Name:        "get_session",
			Description: "Get a session with its summary, if any",
			InputSchema: object(map[string]any{"id": str("Session ID")}, "id"),
			ReadOnly:    true,
		},
		{
			Name:        "list_pending_summaries",
			Description: "List closed sessions that have no summary yet",
			InputSchema: object(map[string]any{"limit": integer("Maximum sessions (default 50)")}),
			ReadOnly:    true,
		},
		{
			Name:        "attach_summary",
			Description: "Store the summary of a closed session, replacing any earlier one",
			InputSchema: object(map[string]any{
				"session_id":  str("Session ID"),
				"summary":     str("Summary text"),
				"explanation": str("How the summary was derived"),
				"confidence":  str("Confidence label"),
				"tags":        array("Free-form tags", map[string]any{"type": "string"}),
			}, "session_id", "summary"),
		},

		// Activity
		{
			Name:        "list_activity",
			Description: "List raw activity rows by type and time",
			InputSchema: object(rangeProps(map[string]any{
				"types":      array("Activity types (default all)", enum("Activity type", eventTypes)),
				"unassigned": boolean("Only rows without a project"),
				"after_id":   str("Resume after this ID (single type only)"),
				"limit":      integer("Maximum rows"),
			})),
			ReadOnly: true,
		},
		{
			Name:        "get_activity",
			Description: "Get one activity row",
			InputSchema: object(map[string]any{
				"event_type": enum("Activity type", eventTypes),
				"event_id":   str("Activity ID"),
			}, "event_type", "event_id"),
			ReadOnly: true,
		},
	}
}
