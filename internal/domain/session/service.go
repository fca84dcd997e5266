package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hmahadik/traq/internal/repository"
)

// Service exposes session queries, startup restore and the summary handoff.
type Service struct {
	repo   Repository
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new session service.
func NewService(repo Repository, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// Restore rebuilds the segmenter from storage.
func (s *Service) Restore(ctx context.Context) (Segmenter, error) {
	rs, err := s.repo.LoadRestoreState(ctx)
	if err != nil {
		return Segmenter{}, fmt.Errorf("loading segmenter state: %w", err)
	}
	seg := Restore(s.cfg, *rs)
	s.logger.Info("segmenter restored", "state", seg.State().String(), "last_seen", seg.LastSeen())
	return seg, nil
}

// Get fetches a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return sess, nil
}

// List returns sessions overlapping a range.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Session, error) {
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, opts)
}

// ListAFK returns AFK blocks overlapping a range.
func (s *Service) ListAFK(ctx context.Context, opts ListOptions) ([]AFKBlock, error) {
	return s.repo.ListAFK(ctx, opts)
}

// ListGaps returns dropped-session gaps in a range.
func (s *Service) ListGaps(ctx context.Context, opts ListOptions) ([]Gap, error) {
	return s.repo.ListGaps(ctx, opts)
}

// PendingSummaries returns closed sessions that have no summary yet, oldest first.
func (s *Service) PendingSummaries(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListPendingSummary(ctx, limit)
}

// AttachSummaryRequest carries an externally produced summary.
type AttachSummaryRequest struct {
	SessionID   string
	Summary     string
	Explanation string
	Confidence  string
	Tags        []string
}

// AttachSummary stores a summary for a closed session, replacing any earlier one.
func (s *Service) AttachSummary(ctx context.Context, req AttachSummaryRequest) (*Summary, error) {
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Summary) == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Open() {
		return nil, ErrSessionOpen
	}

	sum := &Summary{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		Summary:     req.Summary,
		Explanation: req.Explanation,
		Confidence:  req.Confidence,
		Tags:        req.Tags,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AttachSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("attaching summary: %w", err)
	}
	s.logger.Info("summary attached", "session_id", sess.ID, "summary_id", sum.ID)
	return sum, nil
}

// GetSummary fetches the summary of a session.
func (s *Service) GetSummary(ctx context.Context, sessionID string) (*Summary, error) {
	sum, err := s.repo.GetSummary(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	return sum, nil
}
