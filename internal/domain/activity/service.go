package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hmahadik/traq/internal/repository"
)

// Service exposes read access to activity rows.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Get loads one row by reference.
func (s *Service) Get(ctx context.Context, ref Ref) (*Row, error) {
	if !ref.Type.Valid() || ref.ID == "" {
		return nil, ErrInvalidInput
	}
	row, err := s.repo.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("getting activity: %w", err)
	}
	return row, nil
}

// List returns rows matching opts, ordered by timestamp then id.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Row, error) {
	for _, t := range opts.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
		return nil, ErrInvalidInput
	}
	rows, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return rows, nil
}
