package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config controls aggregation.
type Config struct {
	Location      *time.Location
	PixelsPerHour float64
	// CacheSize bounds the number of cached aggregates. Zero disables caching.
	CacheSize int
	// Workers bounds concurrent per-day computation in rollups.
	Workers int
}

// DefaultConfig returns the stock aggregation settings.
func DefaultConfig() Config {
	return Config{
		Location:      time.Local,
		PixelsPerHour: DefaultPixelsPerHour,
		CacheSize:     128,
		Workers:       4,
	}
}

// Service computes timeline read models.
type Service struct {
	repo   Repository
	cfg    Config
	logger *slog.Logger
	cache  *resultCache
	now    func() time.Time
}

// NewService creates a new timeline service.
func NewService(repo Repository, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PixelsPerHour <= 0 {
		cfg.PixelsPerHour = DefaultPixelsPerHour
	}
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		cache:  newResultCache(cfg.CacheSize),
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location returns the zone days are computed in.
func (s *Service) Location() *time.Location { return s.cfg.Location }

// ParseDate parses YYYY-MM-DD as local midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// compute returns the cached value for the key or builds it from a fresh snapshot.
// Ranges that are not over yet depend on the clock and bypass the cache.
func compute[T any](ctx context.Context, s *Service, kind string, from, to time.Time, res Resolution, extra string, build func(*Snapshot, Categorizer, time.Time) (T, error)) (T, error) {
	var zero T
	now := s.now()
	cacheable := !to.After(now)

	if cacheable {
		latest, err := s.repo.LatestWrite(ctx)
		if err != nil {
			return zero, fmt.Errorf("reading latest write: %w", err)
		}
		if v, ok := s.cache.get(newCacheKey(kind, from, to, latest, res, extra)); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	snap, err := s.repo.Snapshot(ctx, from, to)
	if err != nil {
		return zero, fmt.Errorf("loading snapshot: %w", err)
	}
	v, err := build(snap, NewCategorizer(snap.Categories), now)
	if err != nil {
		return zero, err
	}
	if cacheable {
		s.cache.put(newCacheKey(kind, from, to, snap.LatestWrite, res, extra), v)
	}
	s.logger.Debug("computed aggregate", "kind", kind, "from", from, "to", to, "resolution", res, "cached", cacheable)
	return v, nil
}

// Timeline returns the hourly grid and stats of one day.
func (s *Service) Timeline(ctx context.Context, date string, opts GridOptions) (*TimelineGridData, error) {
	dayStart, err := ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)
	extra := fmt.Sprintf("%d/%t/%d", opts.MinDuration, opts.MergeSameApp, opts.MergeGap)
	l := layout{loc: s.cfg.Location, pph: s.cfg.PixelsPerHour}

	return compute(ctx, s, "grid", dayStart, dayEnd, ResolutionHourly, extra, func(snap *Snapshot, cat Categorizer, now time.Time) (*TimelineGridData, error) {
		ivs := activeIntervals(snap, dayStart, dayEnd, cat)
		g := buildGrid(snap, ivs, dayStart, dayEnd, now, l, opts)
		g.DayStats = computeDayStats(snap, ivs, dayStart, dayEnd, now)
		g.TopApps = topApps(ivs, topAppLimit)
		return g, nil
	})
}

// DayStats returns the statistics of one day.
func (s *Service) DayStats(ctx context.Context, date string) (*DayStats, error) {
	dayStart, err := ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)
	return compute(ctx, s, "day", dayStart, dayEnd, ResolutionDaily, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*DayStats, error) {
		return computeDayStats(snap, activeIntervals(snap, dayStart, dayEnd, cat), dayStart, dayEnd, now), nil
	})
}

// Week returns the Monday-started week containing date.
func (s *Service) Week(ctx context.Context, date string) (*WeekStats, error) {
	d, err := ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	start := weekStart(d, s.cfg.Location)
	end := start.AddDate(0, 0, 7)
	return compute(ctx, s, "week", start, end, ResolutionDaily, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*WeekStats, error) {
		days, err := rollDays(ctx, snap, start, end, now, cat, s.cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("rolling up week: %w", err)
		}
		return buildWeek(days, start, end), nil
	})
}

// Month returns one calendar month.
func (s *Service) Month(ctx context.Context, year, month int) (*MonthStats, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	start, end := monthBounds(year, time.Month(month), s.cfg.Location)
	return compute(ctx, s, "month", start, end, ResolutionDaily, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*MonthStats, error) {
		days, err := rollDays(ctx, snap, start, end, now, cat, s.cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("rolling up month: %w", err)
		}
		return buildMonth(days, start, end), nil
	})
}

// Year returns one calendar year.
func (s *Service) Year(ctx context.Context, year int) (*YearlyStats, error) {
	if err := validMonth(year, 1); err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.cfg.Location)
	end := start.AddDate(1, 0, 0)
	return compute(ctx, s, "year", start, end, ResolutionMonthly, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*YearlyStats, error) {
		days, err := rollDays(ctx, snap, start, end, now, cat, s.cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("rolling up year: %w", err)
		}
		return buildYear(days, year, start), nil
	})
}

// CustomRange aggregates [from, to) at a resolution chosen from its length.
func (s *Service) CustomRange(ctx context.Context, from, to time.Time) (*CustomRangeStats, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s is not after %s", ErrInvalidRange, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	res := ResolutionFor(to.Sub(from))
	return compute(ctx, s, "custom", from, to, res, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*CustomRangeStats, error) {
		return customRange(snap, from, to, now, cat, s.cfg.Location), nil
	})
}

// Compare contrasts [from, to) with the equally long period right before it.
func (s *Service) Compare(ctx context.Context, from, to time.Time) (*Comparison, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s is not after %s", ErrInvalidRange, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	prevFrom := from.Add(-to.Sub(from))
	return compute(ctx, s, "compare", prevFrom, to, "", "", func(snap *Snapshot, cat Categorizer, now time.Time) (*Comparison, error) {
		cur := totalsFor(snap, from, to, now, cat)
		prev := totalsFor(snap, prevFrom, from, now, cat)
		return compare(cur, prev, Period{From: from, To: to}, Period{From: prevFrom, To: from}), nil
	})
}

// Heatmap returns per-day intensity for one month.
func (s *Service) Heatmap(ctx context.Context, year, month int) (*CalendarData, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	start, end := monthBounds(year, time.Month(month), s.cfg.Location)
	return compute(ctx, s, "heatmap", start, end, ResolutionDaily, "", func(snap *Snapshot, cat Categorizer, now time.Time) (*CalendarData, error) {
		days, err := rollDays(ctx, snap, start, end, now, cat, s.cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("rolling up heatmap: %w", err)
		}
		return buildCalendar(days, start), nil
	})
}

// Categories returns the stored app category overrides.
func (s *Service) Categories(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.ListAppCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing app categories: %w", err)
	}
	return stored, nil
}

// SetCategory stores the category of app.
func (s *Service) SetCategory(ctx context.Context, app, category string) error {
	app = strings.TrimSpace(app)
	if app == "" {
		return fmt.Errorf("%w: app name is required", ErrInvalidCategory)
	}
	if !ValidCategory(category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if err := s.repo.SetAppCategory(ctx, app, category); err != nil {
		return fmt.Errorf("setting app category: %w", err)
	}
	s.logger.Info("app category set", "app", app, "category", category)
	return nil
}

// DeleteCategory removes the stored category of app, restoring the default.
func (s *Service) DeleteCategory(ctx context.Context, app string) error {
	if err := s.repo.DeleteAppCategory(ctx, strings.TrimSpace(app)); err != nil {
		return fmt.Errorf("deleting app category: %w", err)
	}
	return nil
}

func validMonth(year, month int) error {
	if year < 1970 || year > 9999 || month < 1 || month > 12 {
		return fmt.Errorf("%w: year %d month %d", ErrInvalidDate, year, month)
	}
	return nil
}
