package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/repository"
)

// Engine attributes activity to projects.
type Engine struct {
	cfg        Config
	scorer     Scorer
	repo       Repository
	activities activity.Repository
	projects   Projects
	cache      *candidateCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates an assignment engine.
func NewEngine(cfg Config, repo Repository, activities activity.Repository, projects Projects, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Engine{
		cfg:        cfg,
		scorer:     Scorer{Ceiling: cfg.Ceiling, MinConfidence: cfg.MinConfidence},
		repo:       repo,
		activities: activities,
		projects:   projects,
		cache:      newCandidateCache(projects, cfg.CacheTTL),
		logger:     logger,
		now:        time.Now,
	}
}

// Invalidate drops cached candidates so the next match reloads patterns.
func (e *Engine) Invalidate() {
	e.cache.invalidate()
}

// Suggest scores a context against current patterns. A false result is a valid no-match.
func (e *Engine) Suggest(ctx context.Context, c Context) (Result, bool, error) {
	if c.Empty() {
		return Result{}, false, nil
	}
	candidates, err := e.cache.get(ctx)
	if err != nil {
		return Result{}, false, fmt.Errorf("loading candidates: %w", err)
	}
	res, ok := e.scorer.Assign(c, candidates)
	return res, ok, nil
}

// AutoWrite turns a suggestion into a linkage write for ref.
func AutoWrite(ref activity.Ref, at time.Time, res Result, source activity.Source) Write {
	pid := res.ProjectID
	conf := res.Confidence
	return Write{
		Ref:          ref,
		ProjectID:    &pid,
		Confidence:   &conf,
		Source:       source,
		ActivityTime: at,
		PatternIDs:   res.PatternIDs,
	}
}

// Backfill scores existing rows. Rows that already have a project are skipped unless
// opts.Force is set; manual linkage is never touched. On cancellation the partial
// result is returned together with the context error.
func (e *Engine) Backfill(ctx context.Context, opts BackfillOptions) (*BackfillResult, error) {
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
		return nil, ErrInvalidInput
	}
	types := opts.Types
	if len(types) == 0 {
		types = activity.AllTypes
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, t)
		}
	}

	e.Invalidate()
	candidates, err := e.cache.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	res := &BackfillResult{Preview: opts.Preview}
	start := e.now()
	for _, t := range types {
		afterID := ""
		for {
			if err := ctx.Err(); err != nil {
				res.Cancelled = true
				return res, err
			}
			rows, err := e.activities.List(ctx, activity.ListOptions{
				Types:   []activity.EventType{t},
				From:    opts.From,
				To:      opts.To,
				AfterID: afterID,
				Limit:   e.cfg.BatchSize,
			})
			if err != nil {
				return res, fmt.Errorf("listing %s rows: %w", t, err)
			}
			for _, row := range rows {
				if err := ctx.Err(); err != nil {
					res.Cancelled = true
					return res, err
				}
				e.backfillRow(ctx, row, candidates, opts, res)
			}
			if len(rows) < e.cfg.BatchSize {
				break
			}
			afterID = rows[len(rows)-1].Ref.ID
		}
	}

	if res.AutoAssigned > 0 && !opts.Preview {
		e.Invalidate()
	}
	e.logger.Info("backfill finished",
		"processed", res.TotalProcessed,
		"auto_assigned", res.AutoAssigned,
		"already_assigned", res.AlreadyAssigned,
		"no_match", res.NoMatch,
		"failed", res.Failed,
		"preview", opts.Preview,
		"elapsed", e.now().Sub(start))
	return res, nil
}

func (e *Engine) backfillRow(ctx context.Context, row activity.Row, candidates []project.Candidate, opts BackfillOptions, res *BackfillResult) {
	res.TotalProcessed++
	if row.Manual() || (row.Assigned() && !opts.Force) {
		res.AlreadyAssigned++
		return
	}

	match, ok := e.scorer.Assign(FromRow(row), candidates)
	if !ok {
		res.NoMatch++
		return
	}

	item := BackfillItem{
		Ref:         row.Ref,
		ProjectID:   match.ProjectID,
		ProjectName: match.ProjectName,
		Confidence:  match.Confidence,
		Reason:      match.Reason,
	}
	if opts.Preview {
		res.AutoAssigned++
		res.Items = append(res.Items, item)
		return
	}

	w := AutoWrite(row.Ref, row.Timestamp, match, activity.SourceBackfill)
	w.At = e.now()
	applied, err := e.repo.Apply(ctx, []Write{w})
	if err != nil {
		res.Failed++
		e.logger.Warn("backfill write failed", "event_type", row.Ref.Type, "event_id", row.Ref.ID, "error", err)
		return
	}
	if applied == 0 {
		// a manual assignment landed between read and write
		res.AlreadyAssigned++
		return
	}
	res.AutoAssigned++
	res.Items = append(res.Items, item)
}

// Reassign applies manual assignments atomically, then learns patterns from them.
func (e *Engine) Reassign(ctx context.Context, items []Reassignment) (*ReassignResult, error) {
	if len(items) == 0 {
		return nil, ErrInvalidInput
	}

	now := e.now()
	writes := make([]Write, 0, len(items))
	rows := make([]*activity.Row, 0, len(items))
	for _, it := range items {
		if !it.EventType.Valid() || strings.TrimSpace(it.EventID) == "" {
			return nil, fmt.Errorf("%w: bad event reference %s/%s", ErrInvalidInput, it.EventType, it.EventID)
		}
		ref := activity.Ref{Type: it.EventType, ID: it.EventID}
		row, err := e.activities.Get(ctx, ref)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s/%s", activity.ErrEventNotFound, ref.Type, ref.ID)
			}
			return nil, fmt.Errorf("getting event: %w", err)
		}

		w := Write{Ref: ref, Source: activity.SourceManual, ActivityTime: row.Timestamp, At: now}
		if it.ProjectID != "" {
			if _, err := e.projects.Get(ctx, it.ProjectID); err != nil {
				return nil, err
			}
			pid := it.ProjectID
			conf := 1.0
			w.ProjectID = &pid
			w.Confidence = &conf
		}
		writes = append(writes, w)
		rows = append(rows, row)
	}

	updated, err := e.repo.Apply(ctx, writes)
	if err != nil {
		return nil, fmt.Errorf("applying reassignment: %w", err)
	}

	result := &ReassignResult{Updated: updated}
	if e.cfg.Learning {
		for i, it := range items {
			if it.ProjectID == "" {
				continue
			}
			for _, in := range LearnedPatterns(it.ProjectID, FromRow(*rows[i])) {
				if _, err := e.projects.Learn(ctx, in); err != nil {
					e.logger.Warn("pattern learning failed", "project_id", it.ProjectID, "pattern", in.PatternValue, "error", err)
					continue
				}
				result.Learned++
			}
		}
	}
	e.Invalidate()

	e.logger.Info("reassigned activity", "updated", result.Updated, "learned", result.Learned)
	return result, nil
}

// Metrics reports assignment accuracy for activity in [from, to).
func (e *Engine) Metrics(ctx context.Context, from, to time.Time) (*Metrics, error) {
	if to.Before(from) {
		return nil, ErrInvalidInput
	}
	counts, err := e.repo.Metrics(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}
	total, err := e.activities.Count(ctx, activity.ListOptions{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("counting activity: %w", err)
	}
	return BuildMetrics(from, to, total, *counts), nil
}

// BuildMetrics derives the accuracy rate from raw counts.
func BuildMetrics(from, to time.Time, total int, c MetricCounts) *Metrics {
	m := &Metrics{
		PeriodStart:     from,
		PeriodEnd:       to,
		TotalActivities: total,
		AutoAssigned:    c.AutoAssigned,
		UserAssigned:    c.UserAssigned,
		Corrections:     c.Corrections,
	}
	if c.AutoAssigned > 0 {
		rate := 1 - float64(c.Corrections)/float64(c.AutoAssigned)
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		m.AccuracyRate = &rate
	}
	return m
}

// History lists recorded linkage changes.
func (e *Engine) History(ctx context.Context, opts HistoryOptions) ([]HistoryEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	return e.repo.History(ctx, opts)
}

// PreviewRule counts and samples the rows a pattern would match, without storing it.
func (e *Engine) PreviewRule(ctx context.Context, req RulePreviewRequest) (*RulePreview, error) {
	if req.MatchType == "" {
		req.MatchType = project.MatchContains
	}
	m, err := project.Compile(project.Pattern{
		ID:           "preview",
		PatternType:  req.PatternType,
		PatternValue: req.PatternValue,
		MatchType:    req.MatchType,
		Weight:       1,
	})
	if err != nil {
		return nil, err
	}
	if req.SampleSize <= 0 {
		req.SampleSize = 5
	}

	preview := &RulePreview{Samples: []RuleSample{}}
	for _, t := range activity.AllTypes {
		afterID := ""
		for {
			if err := ctx.Err(); err != nil {
				return preview, err
			}
			rows, err := e.activities.List(ctx, activity.ListOptions{
				Types: []activity.EventType{t}, From: req.From, To: req.To,
				AfterID: afterID, Limit: e.cfg.BatchSize,
			})
			if err != nil {
				return nil, fmt.Errorf("listing %s rows: %w", t, err)
			}
			for _, row := range rows {
				preview.Scanned++
				for _, v := range FromRow(row).Fields(req.PatternType) {
					if !m.Match(v) {
						continue
					}
					preview.MatchCount++
					if len(preview.Samples) < req.SampleSize {
						preview.Samples = append(preview.Samples, RuleSample{
							Ref: row.Ref, Timestamp: row.Timestamp, Value: v, ProjectID: row.ProjectID,
						})
					}
					break
				}
			}
			if len(rows) < e.cfg.BatchSize {
				break
			}
			afterID = rows[len(rows)-1].Ref.ID
		}
	}
	return preview, nil
}

// DiscoverOptions bounds project auto-discovery.
type DiscoverOptions struct {
	Since      time.Time
	MinCommits int
}

// AutoDiscover creates a project for each repository with enough unassigned commits.
func (e *Engine) AutoDiscover(ctx context.Context, opts DiscoverOptions) ([]project.Project, error) {
	if !e.cfg.AutoDiscover {
		return nil, ErrDiscoveryDisabled
	}
	if opts.MinCommits <= 0 {
		opts.MinCommits = e.cfg.DiscoverMinCommits
	}
	if opts.Since.IsZero() {
		opts.Since = e.now().AddDate(0, 0, -90)
	}

	repos, err := e.repo.UnassignedRepos(ctx, opts.Since, opts.MinCommits)
	if err != nil {
		return nil, fmt.Errorf("finding repositories: %w", err)
	}
	existing, err := e.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[strings.ToLower(p.Name)] = true
	}

	var created []project.Project
	for _, r := range repos {
		name := RepoName(r.Repository)
		if name == "" || taken[name] {
			continue
		}
		proj, err := e.projects.Create(ctx, project.CreateRequest{
			Name:        name,
			Description: "Auto-discovered from git activity",
			Patterns: []project.PatternInput{{
				PatternType:  project.PatternGitRepo,
				PatternValue: name,
				MatchType:    project.MatchContains,
				Weight:       learnedRepoWeight,
			}},
		})
		if err != nil {
			e.logger.Warn("auto-discovery create failed", "repository", r.Repository, "error", err)
			continue
		}
		taken[name] = true
		created = append(created, *proj)
	}

	if len(created) > 0 {
		e.Invalidate()
		e.logger.Info("auto-discovered projects", "count", len(created))
	}
	return created, nil
}
