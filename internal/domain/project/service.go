package project

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

// Service handles project and pattern operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID          string
	Name        string
	Color       string
	Description string
	IsManual    bool
	Patterns    []PatternInput
}

// UpdateRequest defines editable project fields. Nil fields are left unchanged.
type UpdateRequest struct {
	ID          string
	Name        *string
	Color       *string
	Description *string
}

// PatternInput defines a pattern to create or replace.
type PatternInput struct {
	ProjectID    string
	PatternType  PatternType
	PatternValue string
	MatchType    MatchType
	Weight       float64
}

// Create creates a project and any initial patterns.
// Patterns are validated before anything is written.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	patterns := make([]Pattern, 0, len(req.Patterns))
	for _, in := range req.Patterns {
		in.ProjectID = id
		p, err := s.buildPattern(in)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	color := req.Color
	if color == "" {
		color = s.nextColor(ctx)
	}

	now := s.now()
	proj := &Project{
		ID:          id,
		Name:        name,
		Color:       color,
		Description: req.Description,
		IsManual:    req.IsManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	for i := range patterns {
		if err := s.repo.CreatePattern(ctx, &patterns[i]); err != nil {
			return nil, fmt.Errorf("creating pattern: %w", err)
		}
	}
	proj.DetectionPatterns = patterns

	s.logger.Info("project created", "project_id", proj.ID, "name", proj.Name, "patterns", len(patterns))
	return proj, nil
}

// Get fetches a project with its detection patterns.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	patterns, err := s.repo.ListPatterns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	proj.DetectionPatterns = patterns
	return proj, nil
}

// List returns project summaries.
func (s *Service) List(ctx context.Context) ([]ProjectSummary, error) {
	return s.repo.List(ctx)
}

// Update edits project fields.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Project, error) {
	proj, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		proj.Name = name
	}
	if req.Color != nil {
		proj.Color = *req.Color
	}
	if req.Description != nil {
		proj.Description = *req.Description
	}
	proj.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, proj); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return proj, nil
}

// Delete removes a project. References are moved to reassignTo when set, cleared otherwise.
func (s *Service) Delete(ctx context.Context, id string, reassignTo *string) (*DeleteResult, error) {
	if reassignTo != nil {
		if *reassignTo == id {
			return nil, ErrInvalidInput
		}
		if _, err := s.repo.Get(ctx, *reassignTo); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("getting reassignment target: %w", err)
		}
	}

	result, err := s.repo.Delete(ctx, id, reassignTo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id, "cleared", result.Cleared, "reassigned", result.Reassigned)
	return result, nil
}

// AddPattern validates and stores a new pattern.
func (s *Service) AddPattern(ctx context.Context, in PatternInput) (*Pattern, error) {
	if _, err := s.repo.Get(ctx, in.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p, err := s.buildPattern(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePattern(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: duplicate pattern", ErrInvalidPattern)
		}
		return nil, fmt.Errorf("creating pattern: %w", err)
	}
	return &p, nil
}

// UpdatePattern replaces the rule of an existing pattern, keeping its usage statistics.
func (s *Service) UpdatePattern(ctx context.Context, id string, in PatternInput) (*Pattern, error) {
	existing, err := s.repo.GetPattern(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatternNotFound
		}
		return nil, fmt.Errorf("getting pattern: %w", err)
	}
	in.ProjectID = existing.ProjectID
	p, err := s.buildPattern(in)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.HitCount = existing.HitCount
	p.LastUsedAt = existing.LastUsedAt
	p.CreatedAt = existing.CreatedAt

	if err := s.repo.UpdatePattern(ctx, &p); err != nil {
		return nil, fmt.Errorf("updating pattern: %w", err)
	}
	return &p, nil
}

// DeletePattern removes a pattern.
func (s *Service) DeletePattern(ctx context.Context, id string) error {
	if err := s.repo.DeletePattern(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPatternNotFound
		}
		return fmt.Errorf("deleting pattern: %w", err)
	}
	return nil
}

// ListPatterns returns the patterns of one project.
func (s *Service) ListPatterns(ctx context.Context, projectID string) ([]Pattern, error) {
	return s.repo.ListPatterns(ctx, projectID)
}

// Candidates loads every project with compiled patterns for scoring.
func (s *Service) Candidates(ctx context.Context) ([]Candidate, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	patterns, err := s.repo.ListAllPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}

	byProject := make(map[string][]Pattern, len(summaries))
	for _, p := range patterns {
		byProject[p.ProjectID] = append(byProject[p.ProjectID], p)
	}

	candidates := make([]Candidate, 0, len(summaries))
	for _, sum := range summaries {
		own := byProject[sum.ID]
		if len(own) == 0 {
			continue
		}
		matchers, errs := CompileAll(own)
		for _, err := range errs {
			s.logger.Warn("skipping stored pattern", "project_id", sum.ID, "error", err)
		}
		candidates = append(candidates, Candidate{
			Project: Project{
				ID:          sum.ID,
				Name:        sum.Name,
				Color:       sum.Color,
				Description: sum.Description,
				IsManual:    sum.IsManual,
				CreatedAt:   sum.CreatedAt,
			},
			Matchers: matchers,
		})
	}
	return candidates, nil
}

// Learn upserts a learned pattern, growing its weight when it already exists.
func (s *Service) Learn(ctx context.Context, in PatternInput) (*Pattern, error) {
	p, err := s.buildPattern(in)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.UpsertLearnedPattern(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("learning pattern: %w", err)
	}
	return stored, nil
}

func (s *Service) buildPattern(in PatternInput) (Pattern, error) {
	if in.ProjectID == "" {
		return Pattern{}, ErrInvalidInput
	}
	weight := in.Weight
	if weight == 0 {
		weight = 1.0
	}
	p := Pattern{
		ID:           uuid.NewString(),
		ProjectID:    in.ProjectID,
		PatternType:  in.PatternType,
		PatternValue: strings.TrimSpace(in.PatternValue),
		MatchType:    in.MatchType,
		Weight:       weight,
		CreatedAt:    s.now(),
	}
	if _, err := Compile(p); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func (s *Service) nextColor(ctx context.Context) string {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return Palette[0]
	}
	return Palette[len(summaries)%len(Palette)]
}

// ClampWeight bounds a weight to the allowed range.
func ClampWeight(w float64) float64 {
	if w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}
