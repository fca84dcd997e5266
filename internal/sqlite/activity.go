package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/repository"
)

const linkageCols = "session_id, project_id, project_confidence, project_source"

// activityTable describes how one event type is stored.
type activityTable struct {
	name    string
	timeCol string
	cols    string
}

var activityTables = map[activity.EventType]activityTable{
	activity.TypeScreenshot: {"screenshots", "timestamp", "id, timestamp, image_ref, perceptual_hash, window_title, app_name, window_x, window_y, window_width, window_height, monitor_name, monitor_width, monitor_height"},
	activity.TypeFocus:      {"focus_events", "start_time", "id, window_title, app_name, start_time, end_time, duration_seconds"},
	activity.TypeShell:      {"shell_commands", "timestamp", "id, timestamp, command, shell_type, working_directory, exit_code, duration_seconds"},
	activity.TypeGit:        {"git_commits", "timestamp", "id, timestamp, hash, short_hash, message, repository, remote_url, repo_path, branch, insertions, deletions"},
	activity.TypeFile:       {"file_events", "timestamp", "id, timestamp, event_type, file_path, old_path, file_size_bytes, watch_category"},
	activity.TypeBrowser:    {"browser_visits", "timestamp", "id, timestamp, url, title, domain, browser, visit_duration_seconds"},
}

func tableFor(t activity.EventType) (activityTable, error) {
	tbl, ok := activityTables[t]
	if !ok {
		return activityTable{}, fmt.Errorf("%w: unknown event type %q", repository.ErrInvalidInput, t)
	}
	return tbl, nil
}

func (t activityTable) selectAll() string {
	return "SELECT " + t.cols + ", " + linkageCols + " FROM " + t.name
}

type scanner interface {
	Scan(dest ...any) error
}

type linkageScan struct {
	sessionID  sql.NullString
	projectID  sql.NullString
	confidence sql.NullFloat64
	source     sql.NullString
}

func (l *linkageScan) dest() []any {
	return []any{&l.sessionID, &l.projectID, &l.confidence, &l.source}
}

func (l *linkageScan) linkage() activity.Linkage {
	out := activity.Linkage{
		SessionID:         stringPtr(l.sessionID),
		ProjectID:         stringPtr(l.projectID),
		ProjectConfidence: floatPtr(l.confidence),
	}
	if l.source.Valid {
		src := activity.Source(l.source.String)
		out.ProjectSource = &src
	}
	return out
}

func linkageValues(l activity.Linkage) []any {
	var source sql.NullString
	if l.ProjectSource != nil {
		source = sql.NullString{String: string(*l.ProjectSource), Valid: true}
	}
	return []any{nullString(l.SessionID), nullString(l.ProjectID), nullFloat(l.ProjectConfidence), source}
}

// scanActivity reads one row of type t selected with activityTable.selectAll.
func scanActivity(t activity.EventType, sc scanner) (activity.Row, error) {
	var (
		l   linkageScan
		row activity.Row
		ts  int64
	)
	switch t {
	case activity.TypeScreenshot:
		var s activity.Screenshot
		var title, app sql.NullString
		dest := append([]any{&s.ID, &ts, &s.ImageRef, &s.PerceptualHash, &title, &app,
			&s.WindowX, &s.WindowY, &s.WindowWidth, &s.WindowHeight,
			&s.MonitorName, &s.MonitorWidth, &s.MonitorHeight}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		s.Timestamp = fromUnix(ts)
		s.WindowTitle, s.AppName = stringPtr(title), stringPtr(app)
		s.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: s.ID}, Timestamp: s.Timestamp, Screenshot: &s}
	case activity.TypeFocus:
		var f activity.FocusEvent
		var end int64
		dest := append([]any{&f.ID, &f.WindowTitle, &f.AppName, &ts, &end, &f.DurationSeconds}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		f.StartTime, f.EndTime = fromUnix(ts), fromUnix(end)
		f.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: f.ID}, Timestamp: f.StartTime, Focus: &f}
	case activity.TypeShell:
		var c activity.ShellCommand
		dest := append([]any{&c.ID, &ts, &c.Command, &c.ShellType, &c.WorkingDirectory, &c.ExitCode, &c.DurationSeconds}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		c.Timestamp = fromUnix(ts)
		c.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: c.ID}, Timestamp: c.Timestamp, Shell: &c}
	case activity.TypeGit:
		var g activity.GitCommit
		dest := append([]any{&g.ID, &ts, &g.Hash, &g.ShortHash, &g.Message, &g.Repository,
			&g.RemoteURL, &g.RepoPath, &g.Branch, &g.Insertions, &g.Deletions}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		g.Timestamp = fromUnix(ts)
		g.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: g.ID}, Timestamp: g.Timestamp, Git: &g}
	case activity.TypeFile:
		var f activity.FileEvent
		dest := append([]any{&f.ID, &ts, &f.EventType, &f.FilePath, &f.OldPath, &f.FileSizeBytes, &f.WatchCategory}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		f.Timestamp = fromUnix(ts)
		f.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: f.ID}, Timestamp: f.Timestamp, File: &f}
	case activity.TypeBrowser:
		var b activity.BrowserVisit
		dest := append([]any{&b.ID, &ts, &b.URL, &b.Title, &b.Domain, &b.Browser, &b.VisitDurationSeconds}, l.dest()...)
		if err := sc.Scan(dest...); err != nil {
			return row, err
		}
		b.Timestamp = fromUnix(ts)
		b.Linkage = l.linkage()
		row = activity.Row{Ref: activity.Ref{Type: t, ID: b.ID}, Timestamp: b.Timestamp, Browser: &b}
	default:
		return row, fmt.Errorf("%w: unknown event type %q", repository.ErrInvalidInput, t)
	}
	row.Linkage = l.linkage()
	return row, nil
}

// insertActivity stores a new row with its linkage.
func insertActivity(ctx context.Context, q queryer, row *activity.Row) error {
	tbl, err := tableFor(row.Ref.Type)
	if err != nil {
		return err
	}
	var vals []any
	switch {
	case row.Screenshot != nil:
		s := row.Screenshot
		vals = []any{s.ID, unix(s.Timestamp), s.ImageRef, s.PerceptualHash, nullString(s.WindowTitle), nullString(s.AppName),
			s.WindowX, s.WindowY, s.WindowWidth, s.WindowHeight, s.MonitorName, s.MonitorWidth, s.MonitorHeight}
	case row.Focus != nil:
		f := row.Focus
		vals = []any{f.ID, f.WindowTitle, f.AppName, unix(f.StartTime), unix(f.EndTime), f.DurationSeconds}
	case row.Shell != nil:
		c := row.Shell
		vals = []any{c.ID, unix(c.Timestamp), c.Command, c.ShellType, c.WorkingDirectory, c.ExitCode, c.DurationSeconds}
	case row.Git != nil:
		g := row.Git
		vals = []any{g.ID, unix(g.Timestamp), g.Hash, g.ShortHash, g.Message, g.Repository, g.RemoteURL, g.RepoPath, g.Branch, g.Insertions, g.Deletions}
	case row.File != nil:
		f := row.File
		vals = []any{f.ID, unix(f.Timestamp), f.EventType, f.FilePath, f.OldPath, f.FileSizeBytes, f.WatchCategory}
	case row.Browser != nil:
		b := row.Browser
		vals = []any{b.ID, unix(b.Timestamp), b.URL, b.Title, b.Domain, b.Browser, b.VisitDurationSeconds}
	default:
		return fmt.Errorf("%w: row %s has no payload", repository.ErrInvalidInput, row.Ref.ID)
	}
	vals = append(vals, linkageValues(row.Linkage)...)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	query := "INSERT INTO " + tbl.name + " (" + tbl.cols + ", " + linkageCols + ") VALUES (" + placeholders + ")"
	if _, err := q.ExecContext(ctx, query, vals...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", repository.ErrConflict, row.Ref.Type, row.Ref.ID)
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert %s: %w", row.Ref.Type, err)
	}
	return nil
}

func getActivity(ctx context.Context, q queryer, ref activity.Ref) (*activity.Row, error) {
	tbl, err := tableFor(ref.Type)
	if err != nil {
		return nil, err
	}
	row, err := scanActivity(ref.Type, q.QueryRowContext(ctx, tbl.selectAll()+" WHERE id = ?", ref.ID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", ref.Type, err)
	}
	return &row, nil
}

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Get retrieves one row by reference
func (r *ActivityRepository) Get(ctx context.Context, ref activity.Ref) (*activity.Row, error) {
	return getActivity(ctx, r.db, ref)
}

func filters(tbl activityTable, opts activity.ListOptions) (string, []any) {
	var conditions []string
	var args []any
	if !opts.From.IsZero() {
		conditions = append(conditions, tbl.timeCol+" >= ?")
		args = append(args, unix(opts.From))
	}
	if !opts.To.IsZero() {
		conditions = append(conditions, tbl.timeCol+" < ?")
		args = append(args, unix(opts.To))
	}
	if opts.Unassigned {
		conditions = append(conditions, "project_id IS NULL")
	}
	if opts.AfterID != "" {
		conditions = append(conditions, "id > ?")
		args = append(args, opts.AfterID)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func listTypes(opts activity.ListOptions) []activity.EventType {
	if len(opts.Types) == 0 {
		return activity.AllTypes
	}
	return opts.Types
}

// List returns rows matching opts. A single type is ordered by id, which is what
// AfterID pages on; several types are merged in timestamp order.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Row, error) {
	types := listTypes(opts)
	var out []activity.Row
	for _, t := range types {
		tbl, err := tableFor(t)
		if err != nil {
			return nil, err
		}
		where, args := filters(tbl, opts)
		query := tbl.selectAll() + where + " ORDER BY id"
		if opts.Limit > 0 {
			query += " LIMIT ?"
			args = append(args, opts.Limit)
		}

		rows, err := listActivity(ctx, r.db, t, query, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}

	if len(types) > 1 {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Timestamp.Equal(out[j].Timestamp) {
				return out[i].Timestamp.Before(out[j].Timestamp)
			}
			return out[i].Ref.ID < out[j].Ref.ID
		})
		if opts.Limit > 0 && len(out) > opts.Limit {
			out = out[:opts.Limit]
		}
	}
	return out, nil
}

// Count returns how many rows match opts, ignoring Limit and AfterID
func (r *ActivityRepository) Count(ctx context.Context, opts activity.ListOptions) (int, error) {
	opts.AfterID = ""
	total := 0
	for _, t := range listTypes(opts) {
		tbl, err := tableFor(t)
		if err != nil {
			return 0, err
		}
		where, args := filters(tbl, opts)
		var n int
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tbl.name+where, args...).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", t, err)
		}
		total += n
	}
	return total, nil
}

// listActivity runs a query built on activityTable.selectAll for type t.
func listActivity(ctx context.Context, q queryer, t activity.EventType, query string, args ...any) ([]activity.Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t, err)
	}
	defer rows.Close()

	var out []activity.Row
	for rows.Next() {
		row, err := scanActivity(t, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t, err)
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", t, err)
	}
	return out, nil
}
