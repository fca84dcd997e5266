package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionCols = "id, start_time, end_time, duration_seconds, screenshot_count, summary_id, project_id, created_at"

func scanSession(sc scanner) (*session.Session, error) {
	var sess session.Session
	var start, created int64
	var end sql.NullInt64
	var summaryID, projectID sql.NullString
	err := sc.Scan(
		&sess.ID,
		&start,
		&end,
		&sess.DurationSeconds,
		&sess.ScreenshotCount,
		&summaryID,
		&projectID,
		&created,
	)
	if err != nil {
		return nil, err
	}
	sess.StartTime = fromUnix(start)
	sess.EndTime = timePtr(end)
	sess.SummaryID = stringPtr(summaryID)
	sess.ProjectID = stringPtr(projectID)
	sess.CreatedAt = fromUnix(created)
	return &sess, nil
}

const afkCols = "id, start_time, end_time, duration_seconds, trigger_type"

func scanAFK(sc scanner) (*session.AFKBlock, error) {
	var b session.AFKBlock
	var start int64
	var end sql.NullInt64
	if err := sc.Scan(&b.ID, &start, &end, &b.DurationSeconds, &b.TriggerType); err != nil {
		return nil, err
	}
	b.StartTime = fromUnix(start)
	b.EndTime = timePtr(end)
	return &b, nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := scanSession(r.db.QueryRowContext(ctx, "SELECT "+sessionCols+" FROM sessions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// overlapping builds the range filter for tables with a nullable end_time.
func overlapping(opts session.ListOptions) (string, []any) {
	var conditions []string
	var args []any
	if !opts.To.IsZero() {
		conditions = append(conditions, "start_time < ?")
		args = append(args, unix(opts.To))
	}
	if !opts.From.IsZero() {
		conditions = append(conditions, "(end_time IS NULL OR end_time > ?)")
		args = append(args, unix(opts.From))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	where += " ORDER BY start_time, id"
	if opts.Limit > 0 {
		where += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	return where, args
}

func listSessions(ctx context.Context, q queryer, where string, args ...any) ([]session.Session, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+sessionCols+" FROM sessions"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func listAFK(ctx context.Context, q queryer, where string, args ...any) ([]session.AFKBlock, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+afkCols+" FROM afk_blocks"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list afk blocks: %w", err)
	}
	defer rows.Close()

	var blocks []session.AFKBlock
	for rows.Next() {
		b, err := scanAFK(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan afk block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating afk rows: %w", err)
	}
	return blocks, nil
}

// List returns sessions overlapping the range, oldest first
func (r *SessionRepository) List(ctx context.Context, opts session.ListOptions) ([]session.Session, error) {
	where, args := overlapping(opts)
	return listSessions(ctx, r.db, where, args...)
}

// ListAFK returns AFK blocks overlapping the range, oldest first
func (r *SessionRepository) ListAFK(ctx context.Context, opts session.ListOptions) ([]session.AFKBlock, error) {
	where, args := overlapping(opts)
	return listAFK(ctx, r.db, where, args...)
}

// ListGaps returns gaps overlapping the range, oldest first
func (r *SessionRepository) ListGaps(ctx context.Context, opts session.ListOptions) ([]session.Gap, error) {
	where, args := overlapping(opts)
	query := "SELECT id, start_time, end_time, dropped_session_id, afk_block_id FROM session_gaps" + where

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list gaps: %w", err)
	}
	defer rows.Close()

	var gaps []session.Gap
	for rows.Next() {
		var g session.Gap
		var start, end int64
		if err := rows.Scan(&g.ID, &start, &end, &g.DroppedSessionID, &g.AFKBlockID); err != nil {
			return nil, fmt.Errorf("failed to scan gap: %w", err)
		}
		g.StartTime, g.EndTime = fromUnix(start), fromUnix(end)
		gaps = append(gaps, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gap rows: %w", err)
	}
	return gaps, nil
}

// ListPendingSummary returns closed sessions without a summary, oldest first
func (r *SessionRepository) ListPendingSummary(ctx context.Context, limit int) ([]session.Session, error) {
	return listSessions(ctx, r.db, " WHERE end_time IS NOT NULL AND summary_id IS NULL ORDER BY start_time, id LIMIT ?", limit)
}

// AttachSummary stores sum, replacing any earlier summary of the same session
func (r *SessionRepository) AttachSummary(ctx context.Context, sum *session.Summary) error {
	tags := sum.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_summaries (id, session_id, summary, explanation, confidence, tags, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				id = excluded.id,
				summary = excluded.summary,
				explanation = excluded.explanation,
				confidence = excluded.confidence,
				tags = excluded.tags,
				created_at = excluded.created_at
		`, sum.ID, sum.SessionID, sum.Summary, sum.Explanation, sum.Confidence, string(encoded), unix(sum.CreatedAt))
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("failed to store summary: %w", err)
		}

		result, err := tx.ExecContext(ctx, "UPDATE sessions SET summary_id = ? WHERE id = ?", sum.ID, sum.SessionID)
		if err != nil {
			return fmt.Errorf("failed to link summary: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}
		return bumpLatestWrite(ctx, tx)
	})
}

// GetSummary retrieves the summary of a session
func (r *SessionRepository) GetSummary(ctx context.Context, sessionID string) (*session.Summary, error) {
	query := `
		SELECT id, session_id, summary, explanation, confidence, tags, created_at
		FROM session_summaries
		WHERE session_id = ?
	`

	var sum session.Summary
	var tags string
	var created int64
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&sum.ID,
		&sum.SessionID,
		&sum.Summary,
		&sum.Explanation,
		&sum.Confidence,
		&tags,
		&created,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &sum.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	sum.CreatedAt = fromUnix(created)
	return &sum, nil
}

// LoadRestoreState reads the open session or AFK block and their neighbours in one snapshot
func (r *SessionRepository) LoadRestoreState(ctx context.Context) (*session.RestoreState, error) {
	rs := &session.RestoreState{}
	err := r.db.readTx(ctx, func(tx *sql.Tx) error {
		open, err := scanSession(tx.QueryRowContext(ctx,
			"SELECT "+sessionCols+" FROM sessions WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1"))
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return fmt.Errorf("failed to load open session: %w", err)
		default:
			rs.Open = open
		}

		afk, err := scanAFK(tx.QueryRowContext(ctx,
			"SELECT "+afkCols+" FROM afk_blocks WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1"))
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return fmt.Errorf("failed to load open afk block: %w", err)
		default:
			rs.OpenAFK = afk
		}

		prev, err := scanSession(tx.QueryRowContext(ctx,
			"SELECT "+sessionCols+" FROM sessions WHERE end_time IS NOT NULL ORDER BY end_time DESC, start_time DESC LIMIT 1"))
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return fmt.Errorf("failed to load previous session: %w", err)
		default:
			rs.Previous = prev
		}

		if rs.Open != nil {
			bridge, err := scanAFK(tx.QueryRowContext(ctx,
				"SELECT "+afkCols+" FROM afk_blocks WHERE end_time = ? ORDER BY start_time DESC LIMIT 1", unix(rs.Open.StartTime)))
			switch {
			case err == sql.ErrNoRows:
			case err != nil:
				return fmt.Errorf("failed to load bridge afk block: %w", err)
			default:
				rs.Bridge = bridge
			}
		}

		lastSeen, ok, err := getMeta(ctx, tx, metaLastSeen)
		if err != nil {
			return err
		}
		if ok {
			rs.LastSeen = fromUnix(lastSeen)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// sessionsStartingIn lists sessions whose start falls in [from, to).
func sessionsStartingIn(ctx context.Context, q queryer, from, to time.Time) ([]session.Session, error) {
	return listSessions(ctx, q, " WHERE start_time >= ? AND start_time < ? ORDER BY start_time, id", unix(from), unix(to))
}
