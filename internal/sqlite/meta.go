package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// engine_meta keys.
const (
	metaLastSeen    = "last_seen"    // unix seconds of the newest committed activity
	metaLatestWrite = "latest_write" // unix nanoseconds, strictly increasing
)

func setMeta(ctx context.Context, q queryer, key string, value int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO engine_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func getMeta(ctx context.Context, q queryer, key string) (int64, bool, error) {
	var v int64
	err := q.QueryRowContext(ctx, "SELECT value FROM engine_meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

// bumpLatestWrite marks that aggregate inputs changed. The value never repeats,
// even for writes within the same clock tick.
func bumpLatestWrite(ctx context.Context, q queryer) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO engine_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = MAX(excluded.value, engine_meta.value + 1)
	`, metaLatestWrite, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to bump %s: %w", metaLatestWrite, err)
	}
	return nil
}

func latestWrite(ctx context.Context, q queryer) (time.Time, error) {
	v, ok, err := getMeta(ctx, q, metaLatestWrite)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return time.Unix(0, v).UTC(), nil
}
