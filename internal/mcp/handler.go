package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/domain/timeline"
)

// TimelineService defines the read models needed by MCP.
type TimelineService interface {
	Timeline(ctx context.Context, date string, opts timeline.GridOptions) (*timeline.TimelineGridData, error)
	DayStats(ctx context.Context, date string) (*timeline.DayStats, error)
	Week(ctx context.Context, date string) (*timeline.WeekStats, error)
	Month(ctx context.Context, year, month int) (*timeline.MonthStats, error)
	Year(ctx context.Context, year int) (*timeline.YearlyStats, error)
	CustomRange(ctx context.Context, from, to time.Time) (*timeline.CustomRangeStats, error)
	Compare(ctx context.Context, from, to time.Time) (*timeline.Comparison, error)
	Heatmap(ctx context.Context, year, month int) (*timeline.CalendarData, error)
	Categories(ctx context.Context) (map[string]string, error)
	SetCategory(ctx context.Context, app, category string) error
	DeleteCategory(ctx context.Context, app string) error
}

// ProjectService defines project and pattern operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.ProjectSummary, error)
	Update(ctx context.Context, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string, reassignTo *string) (*project.DeleteResult, error)
	AddPattern(ctx context.Context, in project.PatternInput) (*project.Pattern, error)
	UpdatePattern(ctx context.Context, id string, in project.PatternInput) (*project.Pattern, error)
	DeletePattern(ctx context.Context, id string) error
	ListPatterns(ctx context.Context, projectID string) ([]project.Pattern, error)
}

// AssignmentService defines assignment operations needed by MCP.
type AssignmentService interface {
	Backfill(ctx context.Context, opts assignment.BackfillOptions) (*assignment.BackfillResult, error)
	Reassign(ctx context.Context, items []assignment.Reassignment) (*assignment.ReassignResult, error)
	Metrics(ctx context.Context, from, to time.Time) (*assignment.Metrics, error)
	History(ctx context.Context, opts assignment.HistoryOptions) ([]assignment.HistoryEntry, error)
	PreviewRule(ctx context.Context, req assignment.RulePreviewRequest) (*assignment.RulePreview, error)
	AutoDiscover(ctx context.Context, opts assignment.DiscoverOptions) ([]project.Project, error)
	Invalidate()
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	List(ctx context.Context, opts session.ListOptions) ([]session.Session, error)
	ListAFK(ctx context.Context, opts session.ListOptions) ([]session.AFKBlock, error)
	ListGaps(ctx context.Context, opts session.ListOptions) ([]session.Gap, error)
	PendingSummaries(ctx context.Context, limit int) ([]session.Session, error)
	AttachSummary(ctx context.Context, req session.AttachSummaryRequest) (*session.Summary, error)
	GetSummary(ctx context.Context, sessionID string) (*session.Summary, error)
}

// ActivityService defines activity reads needed by MCP.
type ActivityService interface {
	Get(ctx context.Context, ref activity.Ref) (*activity.Row, error)
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Row, error)
}

// Handler dispatches MCP tool calls.
type Handler struct {
	timeline    TimelineService
	projects    ProjectService
	assignments AssignmentService
	sessions    SessionService
	activity    ActivityService
	loc         *time.Location
}

// NewHandler creates a new MCP handler. Dates without a time zone are read in loc.
func NewHandler(services Services, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		timeline:    services.Timeline,
		projects:    services.Projects,
		assignments: services.Assignments,
		sessions:    services.Sessions,
		activity:    services.Activity,
		loc:         loc,
	}
}

// Handle dispatches a tool call to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	// Timeline
	case "get_timeline":
		var req TimelineParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.Timeline(ctx, req.Date, timeline.GridOptions{
			MinDuration:  time.Duration(req.MinDurationSeconds) * time.Second,
			MergeSameApp: req.MergeSameApp,
			MergeGap:     time.Duration(req.MergeGapSeconds) * time.Second,
		}))
	case "get_day_stats":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.DayStats(ctx, req.Date))
	case "get_week_stats":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.Week(ctx, req.Date))
	case "get_month_stats":
		var req MonthParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.Month(ctx, req.Year, req.Month))
	case "get_year_stats":
		var req YearParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.Year(ctx, req.Year))
	case "get_custom_range":
		from, to, err := h.decodeRange(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.timeline.CustomRange(ctx, from, to))
	case "compare_periods":
		from, to, err := h.decodeRange(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.timeline.Compare(ctx, from, to))
	case "get_heatmap":
		var req MonthParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.timeline.Heatmap(ctx, req.Year, req.Month))
	case "get_categories":
		cats, err := h.timeline.Categories(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return CategoriesResponse{Categories: cats}, nil
	case "set_category":
		var req SetCategoryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.timeline.SetCategory(ctx, req.App, req.Category); err != nil {
			return nil, mapError(err)
		}
		return OKResponse{OK: true}, nil
	case "delete_category":
		var req DeleteCategoryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.timeline.DeleteCategory(ctx, req.App); err != nil {
			return nil, mapError(err)
		}
		return OKResponse{OK: true}, nil

	// Projects
	case "list_projects":
		return wrap(h.projects.List(ctx))
	case "get_project":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.projects.Get(ctx, req.ID))
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		patterns := make([]project.PatternInput, 0, len(req.Patterns))
		for _, p := range req.Patterns {
			patterns = append(patterns, patternInput("", p))
		}
		proj, err := h.projects.Create(ctx, project.CreateRequest{
			Name:        req.Name,
			Color:       req.Color,
			Description: req.Description,
			IsManual:    true,
			Patterns:    patterns,
		})
		if err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return proj, nil
	case "update_project":
		var req UpdateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.Update(ctx, project.UpdateRequest{
			ID:          req.ID,
			Name:        req.Name,
			Color:       req.Color,
			Description: req.Description,
		})
		if err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return proj, nil
	case "delete_project":
		var req DeleteProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.projects.Delete(ctx, req.ID, req.ReassignTo)
		if err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return res, nil

	// Patterns
	case "list_patterns":
		var req ListPatternsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.projects.ListPatterns(ctx, req.ProjectID))
	case "add_pattern":
		var req AddPatternParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.projects.AddPattern(ctx, patternInput(req.ProjectID, req.PatternParams))
		if err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return p, nil
	case "update_pattern":
		var req UpdatePatternParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.projects.UpdatePattern(ctx, req.ID, patternInput(req.ProjectID, req.PatternParams))
		if err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return p, nil
	case "delete_pattern":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.projects.DeletePattern(ctx, req.ID); err != nil {
			return nil, mapError(err)
		}
		h.assignments.Invalidate()
		return OKResponse{OK: true}, nil

	// Assignment
	case "reassign":
		var req ReassignParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.assignments.Reassign(ctx, req.Items))
	case "backfill":
		var req BackfillParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := h.optionalRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		return wrap(h.assignments.Backfill(ctx, assignment.BackfillOptions{
			Types:   req.Types,
			From:    from,
			To:      to,
			Force:   req.Force,
			Preview: req.Preview,
		}))
	case "get_assignment_metrics":
		from, to, err := h.decodeRange(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.assignments.Metrics(ctx, from, to))
	case "get_assignment_history":
		var req HistoryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := h.optionalRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		opts := assignment.HistoryOptions{ProjectID: req.ProjectID, From: from, To: to, Limit: req.Limit}
		if req.EventType != "" || req.EventID != "" {
			opts.Ref = &activity.Ref{Type: req.EventType, ID: req.EventID}
		}
		return wrap(h.assignments.History(ctx, opts))
	case "preview_rule":
		var req PreviewRuleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := h.optionalRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		return wrap(h.assignments.PreviewRule(ctx, assignment.RulePreviewRequest{
			PatternType:  req.PatternType,
			PatternValue: req.PatternValue,
			MatchType:    req.MatchType,
			From:         from,
			To:           to,
			SampleSize:   req.SampleSize,
		}))
	case "discover_projects":
		var req DiscoverParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		since, err := h.optionalTime(req.Since)
		if err != nil {
			return nil, err
		}
		created, err := h.assignments.AutoDiscover(ctx, assignment.DiscoverOptions{Since: since, MinCommits: req.MinCommits})
		if err != nil {
			return nil, mapError(err)
		}
		if created == nil {
			created = []project.Project{}
		}
		return DiscoverResponse{Created: created}, nil

	// Sessions
	case "list_sessions":
		opts, err := h.decodeSessionList(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.sessions.List(ctx, opts))
	case "list_afk_blocks":
		opts, err := h.decodeSessionList(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.sessions.ListAFK(ctx, opts))
	case "list_gaps":
		opts, err := h.decodeSessionList(params)
		if err != nil {
			return nil, err
		}
		return wrap(h.sessions.ListGaps(ctx, opts))
	case "get_session":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.Get(ctx, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		resp := SessionDetailResponse{Session: *sess}
		if sess.SummaryID != nil {
			sum, err := h.sessions.GetSummary(ctx, sess.ID)
			if err != nil {
				return nil, mapError(err)
			}
			resp.Summary = sum
		}
		return resp, nil
	case "list_pending_summaries":
		var req PendingSummariesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.sessions.PendingSummaries(ctx, req.Limit))
	case "attach_summary":
		var req AttachSummaryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.sessions.AttachSummary(ctx, session.AttachSummaryRequest{
			SessionID:   req.SessionID,
			Summary:     req.Summary,
			Explanation: req.Explanation,
			Confidence:  req.Confidence,
			Tags:        req.Tags,
		}))

	// Activity
	case "list_activity":
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := h.optionalRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		rows, err := h.activity.List(ctx, activity.ListOptions{
			Types:      req.Types,
			From:       from,
			To:         to,
			Unassigned: req.Unassigned,
			AfterID:    req.AfterID,
			Limit:      req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := ActivityListResponse{Rows: rows}
		if resp.Rows == nil {
			resp.Rows = []activity.Row{}
		}
		// paging by id is only defined within one type
		if len(req.Types) == 1 && req.Limit > 0 && len(rows) == req.Limit {
			resp.NextID = rows[len(rows)-1].Ref.ID
		}
		return resp, nil
	case "get_activity":
		var req GetActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return wrap(h.activity.Get(ctx, activity.Ref{Type: req.EventType, ID: req.EventID}))
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("decoding arguments: %v", err)}
	}
	return nil
}

func (h *Handler) decodeRange(params json.RawMessage) (time.Time, time.Time, error) {
	var req RangeParams
	if err := decodeParams(params, &req); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if req.From == "" || req.To == "" {
		return time.Time{}, time.Time{}, &APIError{Code: "INVALID_RANGE", Message: "from and to are required", RecoveryHint: "Dates are YYYY-MM-DD, times RFC3339"}
	}
	return h.optionalRange(req.From, req.To)
}

func (h *Handler) decodeSessionList(params json.RawMessage) (session.ListOptions, error) {
	var req ListSessionsParams
	if err := decodeParams(params, &req); err != nil {
		return session.ListOptions{}, err
	}
	from, to, err := h.optionalRange(req.From, req.To)
	if err != nil {
		return session.ListOptions{}, err
	}
	return session.ListOptions{From: from, To: to, Limit: req.Limit}, nil
}

func (h *Handler) optionalRange(fromValue, toValue string) (time.Time, time.Time, error) {
	from, err := h.optionalTime(fromValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := h.optionalTime(toValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// optionalTime parses RFC3339 or YYYY-MM-DD. A bare date is midnight in the handler location.
func (h *Handler) optionalTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := timeline.ParseDate(value, h.loc)
	if err != nil {
		return time.Time{}, mapError(err)
	}
	return t, nil
}

func patternInput(projectID string, p PatternParams) project.PatternInput {
	return project.PatternInput{
		ProjectID:    projectID,
		PatternType:  p.PatternType,
		PatternValue: p.PatternValue,
		MatchType:    p.MatchType,
		Weight:       p.Weight,
	}
}

// wrap maps the error of a service call and passes its value through.
func wrap[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
