package mocks

import (
	"context"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/domain/dedup"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/domain/timeline"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Get(ctx context.Context, ref activity.Ref) (*activity.Row, error) {
	args := m.Called(ctx, ref)
	if row, ok := args.Get(0).(*activity.Row); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Row, error) {
	args := m.Called(ctx, opts)
	if rows, ok := args.Get(0).([]activity.Row); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Count(ctx context.Context, opts activity.ListOptions) (int, error) {
	args := m.Called(ctx, opts)
	return args.Int(0), args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	args := m.Called(ctx, name)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.ProjectSummary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string, reassignTo *string) (*project.DeleteResult, error) {
	args := m.Called(ctx, id, reassignTo)
	if res, ok := args.Get(0).(*project.DeleteResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) CreatePattern(ctx context.Context, p *project.Pattern) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProjectRepository) GetPattern(ctx context.Context, id string) (*project.Pattern, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*project.Pattern); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdatePattern(ctx context.Context, p *project.Pattern) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProjectRepository) DeletePattern(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) ListPatterns(ctx context.Context, projectID string) ([]project.Pattern, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Pattern); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListAllPatterns(ctx context.Context) ([]project.Pattern, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Pattern); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpsertLearnedPattern(ctx context.Context, p *project.Pattern) (*project.Pattern, error) {
	args := m.Called(ctx, p)
	if out, ok := args.Get(0).(*project.Pattern); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*session.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) List(ctx context.Context, opts session.ListOptions) ([]session.Session, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListAFK(ctx context.Context, opts session.ListOptions) ([]session.AFKBlock, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]session.AFKBlock); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListGaps(ctx context.Context, opts session.ListOptions) ([]session.Gap, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]session.Gap); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListPendingSummary(ctx context.Context, limit int) ([]session.Session, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) AttachSummary(ctx context.Context, sum *session.Summary) error {
	args := m.Called(ctx, sum)
	return args.Error(0)
}

func (m *SessionRepository) GetSummary(ctx context.Context, sessionID string) (*session.Summary, error) {
	args := m.Called(ctx, sessionID)
	if s, ok := args.Get(0).(*session.Summary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) LoadRestoreState(ctx context.Context) (*session.RestoreState, error) {
	args := m.Called(ctx)
	if rs, ok := args.Get(0).(*session.RestoreState); ok {
		return rs, args.Error(1)
	}
	return nil, args.Error(1)
}

// AssignmentRepository is a mock for assignment.Repository.
type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) Apply(ctx context.Context, writes []assignment.Write) (int, error) {
	args := m.Called(ctx, writes)
	return args.Int(0), args.Error(1)
}

func (m *AssignmentRepository) Metrics(ctx context.Context, from, to time.Time) (*assignment.MetricCounts, error) {
	args := m.Called(ctx, from, to)
	if c, ok := args.Get(0).(*assignment.MetricCounts); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssignmentRepository) History(ctx context.Context, opts assignment.HistoryOptions) ([]assignment.HistoryEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]assignment.HistoryEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssignmentRepository) UnassignedRepos(ctx context.Context, since time.Time, minCommits int) ([]assignment.RepoActivity, error) {
	args := m.Called(ctx, since, minCommits)
	if list, ok := args.Get(0).([]assignment.RepoActivity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TimelineRepository is a mock for timeline.Repository.
type TimelineRepository struct {
	mock.Mock
}

func (m *TimelineRepository) Snapshot(ctx context.Context, from, to time.Time) (*timeline.Snapshot, error) {
	args := m.Called(ctx, from, to)
	if s, ok := args.Get(0).(*timeline.Snapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) LatestWrite(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(time.Time)
	return t, args.Error(1)
}

func (m *TimelineRepository) ListAppCategories(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if cats, ok := args.Get(0).(map[string]string); ok {
		return cats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) SetAppCategory(ctx context.Context, app, category string) error {
	args := m.Called(ctx, app, category)
	return args.Error(0)
}

func (m *TimelineRepository) DeleteAppCategory(ctx context.Context, app string) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

// IngestRepository is a mock for capture.Repository.
type IngestRepository struct {
	mock.Mock
}

func (m *IngestRepository) Commit(ctx context.Context, c *capture.Commit) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *IngestRepository) LastStoredScreenshots(ctx context.Context) (map[string]dedup.Previous, error) {
	args := m.Called(ctx)
	if last, ok := args.Get(0).(map[string]dedup.Previous); ok {
		return last, args.Error(1)
	}
	return nil, args.Error(1)
}
