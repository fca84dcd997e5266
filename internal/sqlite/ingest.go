package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/domain/dedup"
	"github.com/hmahadik/traq/internal/domain/session"
)

// IngestRepository implements capture.Repository for SQLite
type IngestRepository struct {
	db *DB
}

// NewIngestRepository creates a new IngestRepository
func NewIngestRepository(db *DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// Commit writes the boundary changes, the row, its assignment and the clock atomically.
func (r *IngestRepository) Commit(ctx context.Context, c *capture.Commit) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for i, t := range c.Transitions {
			if err := applyTransition(ctx, tx, t); err != nil {
				return fmt.Errorf("transition %d (%s): %w", i, t.Kind, err)
			}
		}

		if c.Row != nil {
			if err := insertActivity(ctx, tx, c.Row); err != nil {
				return err
			}
			if c.Assignment != nil {
				if err := recordWrite(ctx, tx, c.Assignment, nil, nil); err != nil {
					return err
				}
			}
		}

		if !c.LastSeen.IsZero() {
			if err := setMeta(ctx, tx, metaLastSeen, unix(c.LastSeen)); err != nil {
				return err
			}
		}
		if c.Empty() {
			return nil
		}
		return bumpLatestWrite(ctx, tx)
	})
}

func applyTransition(ctx context.Context, tx *sql.Tx, t session.Transition) error {
	switch t.Kind {
	case session.SessionOpened:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, start_time, end_time, duration_seconds, screenshot_count, project_id, created_at)
			VALUES (?, ?, NULL, 0, 0, ?, ?)
		`, t.Session.ID, unix(t.Session.StartTime), nullString(t.Session.ProjectID), unix(t.Session.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		return nil

	case session.SessionClosed:
		return closeSession(ctx, tx, t.Session)

	case session.SessionMerged:
		for _, table := range linkedTables {
			if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET session_id = ? WHERE session_id = ?", t.Target.ID, t.Session.ID); err != nil {
				return fmt.Errorf("failed to move %s: %w", table, err)
			}
		}
		if err := closeSession(ctx, tx, t.Target); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM afk_blocks WHERE id = ?", t.AFK.ID); err != nil {
			return fmt.Errorf("failed to delete bridging afk block: %w", err)
		}
		return deleteSession(ctx, tx, t.Session.ID)

	case session.SessionDropped:
		for _, table := range linkedTables {
			if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET session_id = NULL WHERE session_id = ?", t.Session.ID); err != nil {
				return fmt.Errorf("failed to unlink %s: %w", table, err)
			}
		}
		if err := deleteSession(ctx, tx, t.Session.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE afk_blocks SET end_time = NULL, duration_seconds = 0 WHERE id = ?", t.AFK.ID); err != nil {
			return fmt.Errorf("failed to reopen afk block: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_gaps (id, start_time, end_time, dropped_session_id, afk_block_id)
			VALUES (?, ?, ?, ?, ?)
		`, t.Gap.ID, unix(t.Gap.StartTime), unix(t.Gap.EndTime), t.Gap.DroppedSessionID, t.Gap.AFKBlockID)
		if err != nil {
			return fmt.Errorf("failed to record gap: %w", err)
		}
		return nil

	case session.AFKStarted:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO afk_blocks (id, start_time, end_time, duration_seconds, trigger_type)
			VALUES (?, ?, NULL, 0, ?)
		`, t.AFK.ID, unix(t.AFK.StartTime), string(t.AFK.TriggerType))
		if err != nil {
			return fmt.Errorf("failed to start afk block: %w", err)
		}
		return nil

	case session.AFKEnded:
		_, err := tx.ExecContext(ctx, "UPDATE afk_blocks SET end_time = ?, duration_seconds = ? WHERE id = ?",
			nullUnix(t.AFK.EndTime), t.AFK.DurationSeconds, t.AFK.ID)
		if err != nil {
			return fmt.Errorf("failed to end afk block: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown transition %q", t.Kind)
}

func closeSession(ctx context.Context, tx *sql.Tx, s *session.Session) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET end_time = ?, duration_seconds = ?,
		    screenshot_count = (SELECT COUNT(*) FROM screenshots WHERE session_id = ?)
		WHERE id = ?
	`, nullUnix(s.EndTime), s.DurationSeconds, s.ID, s.ID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

func deleteSession(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LastStoredScreenshots returns the newest stored screenshot per monitor. Its hash
// is empty when the capture could not be hashed.
func (r *IngestRepository) LastStoredScreenshots(ctx context.Context) (map[string]dedup.Previous, error) {
	query := `
		SELECT monitor_name, COALESCE(perceptual_hash, ''), timestamp
		FROM (
			SELECT monitor_name, perceptual_hash, timestamp,
			       ROW_NUMBER() OVER (PARTITION BY monitor_name ORDER BY timestamp DESC, id DESC) AS rn
			FROM screenshots
		)
		WHERE rn = 1
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load last screenshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]dedup.Previous)
	for rows.Next() {
		var monitor, hash string
		var ts int64
		if err := rows.Scan(&monitor, &hash, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}
		if monitor == "" {
			monitor = capture.DefaultStream
		}
		prev := dedup.Previous{Hash: hash, Timestamp: fromUnix(ts)}
		if existing, ok := out[monitor]; ok && !prev.Timestamp.After(existing.Timestamp) {
			continue
		}
		out[monitor] = prev
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating screenshot rows: %w", err)
	}
	return out, nil
}
