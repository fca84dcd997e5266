package session

import "context"

// Repository provides persistence for sessions, AFK blocks and summaries.
// Boundary changes are written by the ingest transaction, not through this interface.
type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, opts ListOptions) ([]Session, error)
	ListAFK(ctx context.Context, opts ListOptions) ([]AFKBlock, error)
	ListGaps(ctx context.Context, opts ListOptions) ([]Gap, error)
	ListPendingSummary(ctx context.Context, limit int) ([]Session, error)
	AttachSummary(ctx context.Context, sum *Summary) error
	GetSummary(ctx context.Context, sessionID string) (*Summary, error)
	LoadRestoreState(ctx context.Context) (*RestoreState, error)
}
