package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/domain/timeline"
)

type timelineStub struct {
	timelineFn    func(context.Context, string, timeline.GridOptions) (*timeline.TimelineGridData, error)
	dayFn         func(context.Context, string) (*timeline.DayStats, error)
	customFn      func(context.Context, time.Time, time.Time) (*timeline.CustomRangeStats, error)
	categoriesFn  func(context.Context) (map[string]string, error)
	setCategoryFn func(context.Context, string, string) error
}

func (s timelineStub) Timeline(ctx context.Context, date string, opts timeline.GridOptions) (*timeline.TimelineGridData, error) {
	return s.timelineFn(ctx, date, opts)
}
func (s timelineStub) DayStats(ctx context.Context, date string) (*timeline.DayStats, error) {
	return s.dayFn(ctx, date)
}
func (s timelineStub) Week(context.Context, string) (*timeline.WeekStats, error) {
	return &timeline.WeekStats{}, nil
}
func (s timelineStub) Month(context.Context, int, int) (*timeline.MonthStats, error) {
	return &timeline.MonthStats{}, nil
}
func (s timelineStub) Year(context.Context, int) (*timeline.YearlyStats, error) {
	return &timeline.YearlyStats{}, nil
}
func (s timelineStub) CustomRange(ctx context.Context, from, to time.Time) (*timeline.CustomRangeStats, error) {
	return s.customFn(ctx, from, to)
}
func (s timelineStub) Compare(context.Context, time.Time, time.Time) (*timeline.Comparison, error) {
	return &timeline.Comparison{}, nil
}
func (s timelineStub) Heatmap(context.Context, int, int) (*timeline.CalendarData, error) {
	return &timeline.CalendarData{}, nil
}
func (s timelineStub) Categories(ctx context.Context) (map[string]string, error) {
	return s.categoriesFn(ctx)
}
func (s timelineStub) SetCategory(ctx context.Context, app, category string) error {
	return s.setCategoryFn(ctx, app, category)
}
func (s timelineStub) DeleteCategory(context.Context, string) error { return nil }

type projectStub struct {
	createFn func(context.Context, project.CreateRequest) (*project.Project, error)
	getFn    func(context.Context, string) (*project.Project, error)
	listFn   func(context.Context) ([]project.ProjectSummary, error)
	deleteFn func(context.Context, string, *string) (*project.DeleteResult, error)
	addFn    func(context.Context, project.PatternInput) (*project.Pattern, error)
}

func (p projectStub) Create(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	return p.createFn(ctx, req)
}
func (p projectStub) Get(ctx context.Context, id string) (*project.Project, error) {
	return p.getFn(ctx, id)
}
func (p projectStub) List(ctx context.Context) ([]project.ProjectSummary, error) {
	return p.listFn(ctx)
}
func (p projectStub) Update(_ context.Context, req project.UpdateRequest) (*project.Project, error) {
	return &project.Project{ID: req.ID}, nil
}
func (p projectStub) Delete(ctx context.Context, id string, reassignTo *string) (*project.DeleteResult, error) {
	return p.deleteFn(ctx, id, reassignTo)
}
func (p projectStub) AddPattern(ctx context.Context, in project.PatternInput) (*project.Pattern, error) {
	return p.addFn(ctx, in)
}
func (p projectStub) UpdatePattern(_ context.Context, id string, in project.PatternInput) (*project.Pattern, error) {
	return &project.Pattern{ID: id, ProjectID: in.ProjectID}, nil
}
func (p projectStub) DeletePattern(context.Context, string) error { return nil }
func (p projectStub) ListPatterns(context.Context, string) ([]project.Pattern, error) {
	return []project.Pattern{}, nil
}

type assignmentStub struct {
	backfillFn  func(context.Context, assignment.BackfillOptions) (*assignment.BackfillResult, error)
	reassignFn  func(context.Context, []assignment.Reassignment) (*assignment.ReassignResult, error)
	historyFn   func(context.Context, assignment.HistoryOptions) ([]assignment.HistoryEntry, error)
	discoverFn  func(context.Context, assignment.DiscoverOptions) ([]project.Project, error)
	invalidated *int
}

func (a assignmentStub) Backfill(ctx context.Context, opts assignment.BackfillOptions) (*assignment.BackfillResult, error) {
	return a.backfillFn(ctx, opts)
}
func (a assignmentStub) Reassign(ctx context.Context, items []assignment.Reassignment) (*assignment.ReassignResult, error) {
	return a.reassignFn(ctx, items)
}
func (a assignmentStub) Metrics(_ context.Context, from, to time.Time) (*assignment.Metrics, error) {
	return &assignment.Metrics{PeriodStart: from, PeriodEnd: to}, nil
}
func (a assignmentStub) History(ctx context.Context, opts assignment.HistoryOptions) ([]assignment.HistoryEntry, error) {
	return a.historyFn(ctx, opts)
}
func (a assignmentStub) PreviewRule(context.Context, assignment.RulePreviewRequest) (*assignment.RulePreview, error) {
	return &assignment.RulePreview{}, nil
}
func (a assignmentStub) AutoDiscover(ctx context.Context, opts assignment.DiscoverOptions) ([]project.Project, error) {
	return a.discoverFn(ctx, opts)
}
func (a assignmentStub) Invalidate() {
	if a.invalidated != nil {
		*a.invalidated++
	}
}

type sessionStub struct {
	getFn     func(context.Context, string) (*session.Session, error)
	summaryFn func(context.Context, string) (*session.Summary, error)
	attachFn  func(context.Context, session.AttachSummaryRequest) (*session.Summary, error)
	listFn    func(context.Context, session.ListOptions) ([]session.Session, error)
}

func (s sessionStub) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.getFn(ctx, id)
}
func (s sessionStub) List(ctx context.Context, opts session.ListOptions) ([]session.Session, error) {
	return s.listFn(ctx, opts)
}
func (s sessionStub) ListAFK(context.Context, session.ListOptions) ([]session.AFKBlock, error) {
	return []session.AFKBlock{}, nil
}
func (s sessionStub) ListGaps(context.Context, session.ListOptions) ([]session.Gap, error) {
	return []session.Gap{}, nil
}
func (s sessionStub) PendingSummaries(context.Context, int) ([]session.Session, error) {
	return []session.Session{}, nil
}
func (s sessionStub) AttachSummary(ctx context.Context, req session.AttachSummaryRequest) (*session.Summary, error) {
	return s.attachFn(ctx, req)
}
func (s sessionStub) GetSummary(ctx context.Context, sessionID string) (*session.Summary, error) {
	return s.summaryFn(ctx, sessionID)
}

type activityStub struct {
	getFn  func(context.Context, activity.Ref) (*activity.Row, error)
	listFn func(context.Context, activity.ListOptions) ([]activity.Row, error)
}

func (a activityStub) Get(ctx context.Context, ref activity.Ref) (*activity.Row, error) {
	return a.getFn(ctx, ref)
}
func (a activityStub) List(ctx context.Context, opts activity.ListOptions) ([]activity.Row, error) {
	return a.listFn(ctx, opts)
}

func TestHandler_TimelineCommands(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("test", 2*3600)

	var gotOpts timeline.GridOptions
	var gotFrom, gotTo time.Time
	handler := NewHandler(Services{
		Timeline: timelineStub{
			timelineFn: func(_ context.Context, date string, opts timeline.GridOptions) (*timeline.TimelineGridData, error) {
				gotOpts = opts
				return &timeline.TimelineGridData{Date: date}, nil
			},
			dayFn: func(context.Context, string) (*timeline.DayStats, error) {
				return &timeline.DayStats{TotalSeconds: 3600}, nil
			},
			customFn: func(_ context.Context, from, to time.Time) (*timeline.CustomRangeStats, error) {
				gotFrom, gotTo = from, to
				return &timeline.CustomRangeStats{}, nil
			},
			categoriesFn: func(context.Context) (map[string]string, error) {
				return map[string]string{"zoom": "meetings"}, nil
			},
			setCategoryFn: func(_ context.Context, _ string, category string) error {
				if !timeline.ValidCategory(category) {
					return timeline.ErrInvalidCategory
				}
				return nil
			},
		},
	}, loc)

	out, err := handler.Handle(ctx, "get_timeline", mustJSON(t, TimelineParams{Date: "2026-03-02", MinDurationSeconds: 60, MergeSameApp: true, MergeGapSeconds: 30}))
	require.NoError(t, err)
	require.Equal(t, "2026-03-02", out.(*timeline.TimelineGridData).Date)
	require.Equal(t, timeline.GridOptions{MinDuration: time.Minute, MergeSameApp: true, MergeGap: 30 * time.Second}, gotOpts)

	out, err = handler.Handle(ctx, "get_day_stats", mustJSON(t, DateParams{Date: "2026-03-02"}))
	require.NoError(t, err)
	require.Equal(t, 3600.0, out.(*timeline.DayStats).TotalSeconds)

	_, err = handler.Handle(ctx, "get_custom_range", mustJSON(t, RangeParams{From: "2026-03-01", To: "2026-03-02T12:00:00Z"}))
	require.NoError(t, err)
	require.True(t, gotFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)))
	require.True(t, gotTo.Equal(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)))

	_, err = handler.Handle(ctx, "get_custom_range", mustJSON(t, RangeParams{From: "2026-03-01"}))
	requireAPIError(t, err, "INVALID_RANGE")

	_, err = handler.Handle(ctx, "get_custom_range", mustJSON(t, RangeParams{From: "yesterday", To: "2026-03-02"}))
	requireAPIError(t, err, "INVALID_RANGE")

	out, err = handler.Handle(ctx, "get_categories", nil)
	require.NoError(t, err)
	require.Equal(t, "meetings", out.(CategoriesResponse).Categories["zoom"])

	_, err = handler.Handle(ctx, "set_category", mustJSON(t, SetCategoryParams{App: "zoom", Category: "focus"}))
	require.NoError(t, err)
	_, err = handler.Handle(ctx, "set_category", mustJSON(t, SetCategoryParams{App: "zoom", Category: "games"}))
	requireAPIError(t, err, "INVALID_CATEGORY")

	for _, method := range []string{"get_week_stats", "get_month_stats", "get_year_stats", "get_heatmap", "compare_periods", "delete_category"} {
		params := json.RawMessage(`{"date":"2026-03-02","year":2026,"month":3,"from":"2026-03-01","to":"2026-03-08","app":"zoom"}`)
		_, err := handler.Handle(ctx, method, params)
		require.NoError(t, err, method)
	}
}

func TestHandler_ProjectCommands(t *testing.T) {
	ctx := context.Background()
	invalidated := 0

	var created project.CreateRequest
	var deletedReassign *string
	handler := NewHandler(Services{
		Projects: projectStub{
			createFn: func(_ context.Context, req project.CreateRequest) (*project.Project, error) {
				created = req
				return &project.Project{ID: "p1", Name: req.Name}, nil
			},
			getFn: func(_ context.Context, id string) (*project.Project, error) {
				if id != "p1" {
					return nil, project.ErrProjectNotFound
				}
				return &project.Project{ID: id, Name: "traq"}, nil
			},
			listFn: func(context.Context) ([]project.ProjectSummary, error) {
				return []project.ProjectSummary{{ID: "p1", Name: "traq", PatternCount: 1}}, nil
			},
			deleteFn: func(_ context.Context, id string, reassignTo *string) (*project.DeleteResult, error) {
				deletedReassign = reassignTo
				return &project.DeleteResult{ProjectID: id, Reassigned: 3, ReassignTo: reassignTo}, nil
			},
			addFn: func(_ context.Context, in project.PatternInput) (*project.Pattern, error) {
				if in.MatchType == project.MatchRegex && in.PatternValue == "(" {
					return nil, project.ErrInvalidPattern
				}
				return &project.Pattern{ID: "pat1", ProjectID: in.ProjectID}, nil
			},
		},
		Assignments: assignmentStub{invalidated: &invalidated},
	}, time.UTC)

	_, err := handler.Handle(ctx, "create_project", mustJSON(t, CreateProjectParams{
		Name:     "traq",
		Patterns: []PatternParams{{PatternType: project.PatternGitRepo, PatternValue: "traq", MatchType: project.MatchExact, Weight: 2}},
	}))
	require.NoError(t, err)
	require.Equal(t, "traq", created.Name)
	require.True(t, created.IsManual)
	require.Len(t, created.Patterns, 1)
	require.Equal(t, project.PatternGitRepo, created.Patterns[0].PatternType)

	out, err := handler.Handle(ctx, "list_projects", nil)
	require.NoError(t, err)
	require.Len(t, out.([]project.ProjectSummary), 1)

	_, err = handler.Handle(ctx, "get_project", mustJSON(t, IDParams{ID: "nope"}))
	requireAPIError(t, err, "PROJECT_NOT_FOUND")

	_, err = handler.Handle(ctx, "delete_project", json.RawMessage(`{"id":"p1","reassign_to":"p2"}`))
	require.NoError(t, err)
	require.NotNil(t, deletedReassign)
	require.Equal(t, "p2", *deletedReassign)

	_, err = handler.Handle(ctx, "add_pattern", json.RawMessage(`{"project_id":"p1","pattern_type":"app","pattern_value":"(","match_type":"regex"}`))
	requireAPIError(t, err, "INVALID_PATTERN")

	out, err = handler.Handle(ctx, "add_pattern", json.RawMessage(`{"project_id":"p1","pattern_type":"app","pattern_value":"code","match_type":"exact"}`))
	require.NoError(t, err)
	require.Equal(t, "p1", out.(*project.Pattern).ProjectID)

	_, err = handler.Handle(ctx, "update_project", json.RawMessage(`{"id":"p1","name":"renamed"}`))
	require.NoError(t, err)
	_, err = handler.Handle(ctx, "delete_pattern", mustJSON(t, IDParams{ID: "pat1"}))
	require.NoError(t, err)

	// create, delete, add, update, delete pattern
	require.Equal(t, 5, invalidated)
}

func TestHandler_AssignmentCommands(t *testing.T) {
	ctx := context.Background()

	var gotBackfill assignment.BackfillOptions
	var gotHistory assignment.HistoryOptions
	var gotItems []assignment.Reassignment
	handler := NewHandler(Services{
		Assignments: assignmentStub{
			backfillFn: func(_ context.Context, opts assignment.BackfillOptions) (*assignment.BackfillResult, error) {
				gotBackfill = opts
				return &assignment.BackfillResult{Preview: opts.Preview, TotalProcessed: 4}, nil
			},
			reassignFn: func(_ context.Context, items []assignment.Reassignment) (*assignment.ReassignResult, error) {
				gotItems = items
				return &assignment.ReassignResult{Updated: len(items)}, nil
			},
			historyFn: func(_ context.Context, opts assignment.HistoryOptions) ([]assignment.HistoryEntry, error) {
				gotHistory = opts
				return []assignment.HistoryEntry{}, nil
			},
			discoverFn: func(context.Context, assignment.DiscoverOptions) ([]project.Project, error) {
				return nil, assignment.ErrDiscoveryDisabled
			},
		},
	}, time.UTC)

	out, err := handler.Handle(ctx, "backfill", json.RawMessage(`{"types":["git","focus"],"from":"2026-03-01","preview":true}`))
	require.NoError(t, err)
	require.True(t, out.(*assignment.BackfillResult).Preview)
	require.Equal(t, []activity.EventType{activity.TypeGit, activity.TypeFocus}, gotBackfill.Types)
	require.True(t, gotBackfill.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.True(t, gotBackfill.To.IsZero())

	out, err = handler.Handle(ctx, "reassign", json.RawMessage(`{"items":[{"event_type":"git","event_id":"g1","project_id":"p1"},{"event_type":"focus","event_id":"f1"}]}`))
	require.NoError(t, err)
	require.Equal(t, 2, out.(*assignment.ReassignResult).Updated)
	require.Equal(t, "", gotItems[1].ProjectID)

	_, err = handler.Handle(ctx, "get_assignment_history", json.RawMessage(`{"event_type":"git","event_id":"g1","limit":5}`))
	require.NoError(t, err)
	require.NotNil(t, gotHistory.Ref)
	require.Equal(t, activity.Ref{Type: activity.TypeGit, ID: "g1"}, *gotHistory.Ref)
	require.Equal(t, 5, gotHistory.Limit)

	_, err = handler.Handle(ctx, "get_assignment_history", nil)
	require.NoError(t, err)
	require.Nil(t, gotHistory.Ref)

	out, err = handler.Handle(ctx, "get_assignment_metrics", mustJSON(t, RangeParams{From: "2026-03-01", To: "2026-03-08"}))
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, out.(*assignment.Metrics).PeriodEnd.Sub(out.(*assignment.Metrics).PeriodStart))

	_, err = handler.Handle(ctx, "preview_rule", json.RawMessage(`{"pattern_type":"app","pattern_value":"code"}`))
	require.NoError(t, err)

	_, err = handler.Handle(ctx, "discover_projects", nil)
	requireAPIError(t, err, "DISCOVERY_DISABLED")
}

func TestHandler_SessionAndActivityCommands(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	summaryID := "sum1"

	var gotList activity.ListOptions
	handler := NewHandler(Services{
		Sessions: sessionStub{
			getFn: func(_ context.Context, id string) (*session.Session, error) {
				switch id {
				case "s1":
					return &session.Session{ID: id, StartTime: start, EndTime: &end, SummaryID: &summaryID}, nil
				case "s2":
					return &session.Session{ID: id, StartTime: start}, nil
				}
				return nil, session.ErrSessionNotFound
			},
			summaryFn: func(_ context.Context, id string) (*session.Summary, error) {
				return &session.Summary{ID: summaryID, SessionID: id, Summary: "wrote tests"}, nil
			},
			attachFn: func(_ context.Context, req session.AttachSummaryRequest) (*session.Summary, error) {
				if req.SessionID == "s2" {
					return nil, session.ErrSessionOpen
				}
				return &session.Summary{SessionID: req.SessionID, Summary: req.Summary, Tags: req.Tags}, nil
			},
			listFn: func(_ context.Context, opts session.ListOptions) ([]session.Session, error) {
				return []session.Session{{ID: "s1", StartTime: opts.From}}, nil
			},
		},
		Activity: activityStub{
			getFn: func(context.Context, activity.Ref) (*activity.Row, error) {
				return nil, activity.ErrEventNotFound
			},
			listFn: func(_ context.Context, opts activity.ListOptions) ([]activity.Row, error) {
				gotList = opts
				return []activity.Row{
					{Ref: activity.Ref{Type: activity.TypeGit, ID: "01A"}},
					{Ref: activity.Ref{Type: activity.TypeGit, ID: "01B"}},
				}, nil
			},
		},
	}, time.UTC)

	out, err := handler.Handle(ctx, "get_session", mustJSON(t, IDParams{ID: "s1"}))
	require.NoError(t, err)
	detail := out.(SessionDetailResponse)
	require.NotNil(t, detail.Summary)
	require.Equal(t, "wrote tests", detail.Summary.Summary)

	out, err = handler.Handle(ctx, "get_session", mustJSON(t, IDParams{ID: "s2"}))
	require.NoError(t, err)
	require.Nil(t, out.(SessionDetailResponse).Summary)

	_, err = handler.Handle(ctx, "get_session", mustJSON(t, IDParams{ID: "missing"}))
	requireAPIError(t, err, "SESSION_NOT_FOUND")

	out, err = handler.Handle(ctx, "attach_summary", mustJSON(t, AttachSummaryParams{SessionID: "s1", Summary: "done", Tags: []string{"go"}}))
	require.NoError(t, err)
	require.Equal(t, []string{"go"}, out.(*session.Summary).Tags)

	_, err = handler.Handle(ctx, "attach_summary", mustJSON(t, AttachSummaryParams{SessionID: "s2", Summary: "done"}))
	requireAPIError(t, err, "SESSION_OPEN")

	out, err = handler.Handle(ctx, "list_sessions", mustJSON(t, ListSessionsParams{From: "2026-03-02", To: "2026-03-03"}))
	require.NoError(t, err)
	require.True(t, out.([]session.Session)[0].StartTime.Equal(start.Add(-9*time.Hour)))

	for _, method := range []string{"list_afk_blocks", "list_gaps", "list_pending_summaries"} {
		_, err := handler.Handle(ctx, method, nil)
		require.NoError(t, err, method)
	}

	out, err = handler.Handle(ctx, "list_activity", json.RawMessage(`{"types":["git"],"unassigned":true,"limit":2}`))
	require.NoError(t, err)
	require.True(t, gotList.Unassigned)
	require.Equal(t, "01B", out.(ActivityListResponse).NextID)

	out, err = handler.Handle(ctx, "list_activity", json.RawMessage(`{"limit":5}`))
	require.NoError(t, err)
	require.Empty(t, out.(ActivityListResponse).NextID)

	_, err = handler.Handle(ctx, "get_activity", mustJSON(t, GetActivityParams{EventType: activity.TypeGit, EventID: "x"}))
	requireAPIError(t, err, "EVENT_NOT_FOUND")
}

func TestHandler_DecodeAndUnknown(t *testing.T) {
	handler := NewHandler(Services{}, nil)

	_, err := handler.Handle(context.Background(), "get_day_stats", json.RawMessage(`{"date":`))
	requireAPIError(t, err, "INVALID_INPUT")

	_, err = handler.Handle(context.Background(), "no_such_tool", nil)
	require.Error(t, err)
	require.Nil(t, MapError(err))
}

func TestToolCatalog_MatchesHandler(t *testing.T) {
	handler := NewHandler(Services{}, time.UTC)
	seen := map[string]bool{}
	for _, def := range buildToolCatalog() {
		require.False(t, seen[def.Name], "duplicate tool %s", def.Name)
		seen[def.Name] = true
		require.NotEmpty(t, def.Description, def.Name)
		require.Equal(t, "object", def.InputSchema["type"], def.Name)

		// every catalog entry must reach a case; unknown names are the only plain errors
		func() {
			defer func() { recover() }()
			_, err := handler.Handle(context.Background(), def.Name, json.RawMessage(`{"date":`))
			if err != nil {
				require.NotContains(t, err.Error(), "unknown method", def.Name)
			}
		}()
	}
}

func requireAPIError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
