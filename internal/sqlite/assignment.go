package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/repository"
)

// AssignmentRepository implements assignment.Repository for SQLite
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Apply writes every linkage change in one transaction. Automatic writes leave manual rows alone.
func (r *AssignmentRepository) Apply(ctx context.Context, writes []assignment.Write) (int, error) {
	var changed int
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		changed = 0
		for i := range writes {
			ok, err := applyWrite(ctx, tx, &writes[i])
			if err != nil {
				return err
			}
			if ok {
				changed++
			}
		}
		if changed == 0 {
			return nil
		}
		return bumpLatestWrite(ctx, tx)
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// applyWrite updates one row's linkage and records it. It reports false when the row
// was left alone because a user owns it.
func applyWrite(ctx context.Context, tx *sql.Tx, w *assignment.Write) (bool, error) {
	tbl, err := tableFor(w.Ref.Type)
	if err != nil {
		return false, err
	}

	var prevProject, prevSource sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT project_id, project_source FROM "+tbl.name+" WHERE id = ?", w.Ref.ID).
		Scan(&prevProject, &prevSource)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: %s %s", repository.ErrNotFound, w.Ref.Type, w.Ref.ID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read linkage: %w", err)
	}
	if w.Source.Automatic() && prevSource.Valid && activity.Source(prevSource.String) == activity.SourceManual {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE "+tbl.name+" SET project_id = ?, project_confidence = ?, project_source = ? WHERE id = ?",
		nullString(w.ProjectID), nullFloat(w.Confidence), string(w.Source), w.Ref.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, repository.ErrForeignKeyViolation
		}
		return false, fmt.Errorf("failed to update linkage: %w", err)
	}

	var previous *activity.Source
	if prevSource.Valid {
		src := activity.Source(prevSource.String)
		previous = &src
	}
	if err := recordWrite(ctx, tx, w, stringPtr(prevProject), previous); err != nil {
		return false, err
	}
	return true, nil
}

// recordWrite appends history for w and credits its winning patterns.
func recordWrite(ctx context.Context, tx *sql.Tx, w *assignment.Write, prevProject *string, prevSource *activity.Source) error {
	at := w.At
	if at.IsZero() {
		at = time.Now()
	}

	var previous sql.NullString
	if prevSource != nil {
		previous = sql.NullString{String: string(*prevSource), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO assignment_history (
			event_type, event_id, project_id, previous_project_id,
			source, previous_source, confidence, activity_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(w.Ref.Type),
		w.Ref.ID,
		nullString(w.ProjectID),
		nullString(prevProject),
		string(w.Source),
		previous,
		nullFloat(w.Confidence),
		unix(w.ActivityTime),
		unix(at),
	)
	if err != nil {
		return fmt.Errorf("failed to record assignment history: %w", err)
	}

	if len(w.PatternIDs) == 0 || !w.Source.Automatic() {
		return nil
	}
	args := []any{unix(at)}
	for _, id := range w.PatternIDs {
		args = append(args, id)
	}
	query := "UPDATE project_patterns SET hit_count = hit_count + 1, last_used_at = ? WHERE id IN (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(w.PatternIDs)), ", ") + ")"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record pattern hits: %w", err)
	}
	return nil
}

// Metrics counts distinct events per kind of assignment for activity in [from, to)
func (r *AssignmentRepository) Metrics(ctx context.Context, from, to time.Time) (*assignment.MetricCounts, error) {
	query := `
		SELECT
			COUNT(DISTINCT CASE WHEN source IN ('auto', 'backfill')
				THEN event_type || ':' || event_id END),
			COUNT(DISTINCT CASE WHEN source = 'manual'
				THEN event_type || ':' || event_id END),
			COUNT(DISTINCT CASE WHEN source = 'manual'
				AND previous_source IN ('auto', 'backfill')
				AND previous_project_id IS NOT project_id
				THEN event_type || ':' || event_id END)
		FROM assignment_history
		WHERE activity_time >= ? AND activity_time < ?
	`

	var counts assignment.MetricCounts
	err := r.db.QueryRowContext(ctx, query, unix(from), unix(to)).Scan(
		&counts.AutoAssigned,
		&counts.UserAssigned,
		&counts.Corrections,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	return &counts, nil
}

// History lists linkage changes, newest first
func (r *AssignmentRepository) History(ctx context.Context, opts assignment.HistoryOptions) ([]assignment.HistoryEntry, error) {
	var conditions []string
	var args []any
	if opts.Ref != nil {
		conditions = append(conditions, "event_type = ? AND event_id = ?")
		args = append(args, string(opts.Ref.Type), opts.Ref.ID)
	}
	if opts.ProjectID != "" {
		conditions = append(conditions, "(project_id = ? OR previous_project_id = ?)")
		args = append(args, opts.ProjectID, opts.ProjectID)
	}
	if !opts.From.IsZero() {
		conditions = append(conditions, "activity_time >= ?")
		args = append(args, unix(opts.From))
	}
	if !opts.To.IsZero() {
		conditions = append(conditions, "activity_time < ?")
		args = append(args, unix(opts.To))
	}

	query := `
		SELECT id, event_type, event_id, project_id, previous_project_id,
		       source, previous_source, confidence, activity_time, created_at
		FROM assignment_history
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment history: %w", err)
	}
	defer rows.Close()

	var entries []assignment.HistoryEntry
	for rows.Next() {
		var e assignment.HistoryEntry
		var projectID, prevProject, prevSource sql.NullString
		var confidence sql.NullFloat64
		var activityTime, created int64
		err := rows.Scan(
			&e.ID,
			&e.Ref.Type,
			&e.Ref.ID,
			&projectID,
			&prevProject,
			&e.Source,
			&prevSource,
			&confidence,
			&activityTime,
			&created,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment history: %w", err)
		}
		e.ProjectID = stringPtr(projectID)
		e.PreviousProjectID = stringPtr(prevProject)
		if prevSource.Valid {
			src := activity.Source(prevSource.String)
			e.PreviousSource = &src
		}
		e.Confidence = floatPtr(confidence)
		e.ActivityTime = fromUnix(activityTime)
		e.CreatedAt = fromUnix(created)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}

// UnassignedRepos counts unassigned commits per repository since a time
func (r *AssignmentRepository) UnassignedRepos(ctx context.Context, since time.Time, minCommits int) ([]assignment.RepoActivity, error) {
	query := `
		SELECT repository, COUNT(*) AS commits
		FROM git_commits
		WHERE project_id IS NULL AND repository != '' AND timestamp >= ?
		GROUP BY repository
		HAVING COUNT(*) >= ?
		ORDER BY commits DESC, repository ASC
	`

	rows, err := r.db.QueryContext(ctx, query, unix(since), minCommits)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned repositories: %w", err)
	}
	defer rows.Close()

	var repos []assignment.RepoActivity
	for rows.Next() {
		var ra assignment.RepoActivity
		if err := rows.Scan(&ra.Repository, &ra.Commits); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, ra)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repository rows: %w", err)
	}
	return repos, nil
}
