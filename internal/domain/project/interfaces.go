package project

import "context"

// Repository provides persistence for projects and their patterns.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context) ([]ProjectSummary, error)
	Update(ctx context.Context, proj *Project) error
	Delete(ctx context.Context, id string, reassignTo *string) (*DeleteResult, error)

	CreatePattern(ctx context.Context, p *Pattern) error
	GetPattern(ctx context.Context, id string) (*Pattern, error)
	UpdatePattern(ctx context.Context, p *Pattern) error
	DeletePattern(ctx context.Context, id string) error
	ListPatterns(ctx context.Context, projectID string) ([]Pattern, error)
	ListAllPatterns(ctx context.Context) ([]Pattern, error)
	UpsertLearnedPattern(ctx context.Context, p *Pattern) (*Pattern, error)
}
