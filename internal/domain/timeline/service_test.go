package timeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu         sync.Mutex
	data       Snapshot
	latest     time.Time
	snapshots  int
	categories map[string]string
}

func (f *fakeRepo) Snapshot(_ context.Context, from, to time.Time) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	w := f.data.window(from, to)
	w.LatestWrite = f.latest
	w.Categories = f.categories
	return w, nil
}

func (f *fakeRepo) LatestWrite(context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeRepo) ListAppCategories(context.Context) (map[string]string, error) {
	return f.categories, nil
}

func (f *fakeRepo) SetAppCategory(_ context.Context, app, category string) error {
	if f.categories == nil {
		f.categories = make(map[string]string)
	}
	f.categories[app] = category
	return nil
}

func (f *fakeRepo) DeleteAppCategory(_ context.Context, app string) error {
	delete(f.categories, app)
	return nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func focus(id, app, start, end string) activity.FocusEvent {
	return activity.FocusEvent{ID: id, AppName: app, WindowTitle: app + " window", StartTime: at(start), EndTime: at(end)}
}

func closedAFK(id, start, end string) session.AFKBlock {
	e := at(end)
	return session.AFKBlock{ID: id, StartTime: at(start), EndTime: &e, TriggerType: session.TriggerIdleTimeout}
}

// mondayData is 65 minutes of overlapping activity on 2026-03-02 with one 5 minute break.
func mondayData() Snapshot {
	return Snapshot{
		Focus: []activity.FocusEvent{
			focus("a", "Code", "2026-03-02T09:30:00Z", "2026-03-02T10:15:00Z"),
			focus("b", "Slack", "2026-03-02T10:00:00Z", "2026-03-02T10:30:00Z"),
			focus("c", "zoom.us", "2026-03-02T11:00:00Z", "2026-03-02T11:10:00Z"),
		},
		AFK: []session.AFKBlock{closedAFK("afk1", "2026-03-02T10:20:00Z", "2026-03-02T10:25:00Z")},
		Git: []activity.GitCommit{{ID: "g1", Timestamp: at("2026-03-02T10:05:00Z"), Message: "fix parser\n\nlong body", ShortHash: "abc1234"}},
	}
}

func newTestService(repo *fakeRepo, now string) *Service {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	return NewService(repo, cfg, nil).WithClock(func() time.Time { return at(now) })
}

func TestTimelineHourlySumsMatchTotal(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2026-03-03T12:00:00Z")

	grid, err := svc.Timeline(context.Background(), "2026-03-02", GridOptions{})
	require.NoError(t, err)

	var sum float64
	for _, secs := range grid.HourlySeconds {
		sum += secs
	}
	require.InDelta(t, 3900, grid.DayStats.TotalSeconds, 0.001)
	require.InDelta(t, grid.DayStats.TotalSeconds, sum, 0.001)
	require.InDelta(t, 1800, grid.HourlySeconds[9], 0.001)
	require.InDelta(t, 1500, grid.HourlySeconds[10], 0.001)
	require.InDelta(t, 600, grid.HourlySeconds[11], 0.001)

	require.Len(t, grid.HourlyGrid[10]["Slack"], 2)
	require.Len(t, grid.HourlyGrid[10]["Code"], 1)
	first := grid.HourlyGrid[9]["Code"][0]
	require.Equal(t, 9, first.HourOffset)
	require.Equal(t, 30, first.MinuteOffset)
	require.InDelta(t, 30, first.PixelPosition, 0.001)
	require.InDelta(t, 30, first.PixelHeight, 0.001)
	require.Equal(t, CategoryFocus, first.Category)

	require.Len(t, grid.GitEvents[10], 1)
	require.Equal(t, "fix parser", grid.GitEvents[10][0].MessageSubject)
	require.Len(t, grid.AFKBlocks[10], 1)
	require.Equal(t, CategoryComms, grid.Categories["Slack"])
	require.Equal(t, "Code", grid.TopApps[0].AppName)
}

func TestTimelineGridOptionsKeepTotals(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2026-03-03T12:00:00Z")

	grid, err := svc.Timeline(context.Background(), "2026-03-02", GridOptions{MinDuration: 6 * time.Minute})
	require.NoError(t, err)
	require.Empty(t, grid.HourlyGrid[10]["Slack"])
	require.InDelta(t, 1500, grid.HourlySeconds[10], 0.001)

	short := minBlockPixels
	l := layout{loc: time.UTC, pph: DefaultPixelsPerHour}
	require.InDelta(t, short, l.height(60, minBlockPixels), 0.001)
}

func TestMergeSameApp(t *testing.T) {
	ivs := []interval{
		{App: "Code", Start: at("2026-03-02T09:00:00Z"), End: at("2026-03-02T09:10:00Z")},
		{App: "Code", Start: at("2026-03-02T09:11:00Z"), End: at("2026-03-02T09:20:00Z")},
		{App: "Slack", Start: at("2026-03-02T09:20:00Z"), End: at("2026-03-02T09:25:00Z")},
	}
	merged := mergeSameApp(ivs, 2*time.Minute)
	require.Len(t, merged, 2)
	require.Equal(t, at("2026-03-02T09:20:00Z"), merged[0].End)
}

func TestDayStats(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2026-03-03T12:00:00Z")

	ds, err := svc.DayStats(context.Background(), "2026-03-02")
	require.NoError(t, err)
	require.Equal(t, 1, ds.BreakCount)
	require.InDelta(t, 300, ds.BreakDuration, 0.001)
	require.InDelta(t, 2700, ds.Breakdown[CategoryFocus], 0.001)
	require.InDelta(t, 600, ds.Breakdown[CategoryComms], 0.001)
	require.InDelta(t, 600, ds.Breakdown[CategoryMeetings], 0.001)
	require.InDelta(t, 300.0/4200*100, ds.BreakdownPercent[CategoryBreaks], 0.001)

	require.InDelta(t, 3000, ds.LongestFocus, 0.001)
	require.Equal(t, at("2026-03-02T09:30:00Z"), *ds.LongestFocusStart)
	require.Equal(t, at("2026-03-02T10:20:00Z"), *ds.LongestFocusEnd)
	require.Equal(t, float64(-1), ds.TimeSinceLastBreak)

	require.NotNil(t, ds.DaySpan)
	require.InDelta(t, 100.0/60, ds.DaySpan.SpanHours, 0.001)
}

func TestDayStatsTimeSinceLastBreakToday(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2026-03-02T12:00:00Z")

	ds, err := svc.DayStats(context.Background(), "2026-03-02")
	require.NoError(t, err)
	require.InDelta(t, 95*60, ds.TimeSinceLastBreak, 0.001)
}

func TestOpenAFKRemovesActiveTime(t *testing.T) {
	data := mondayData()
	data.AFK = append(data.AFK, session.AFKBlock{ID: "open", StartTime: at("2026-03-02T11:05:00Z"), TriggerType: session.TriggerManual})
	repo := &fakeRepo{data: data}
	svc := newTestService(repo, "2026-03-02T11:30:00Z")

	ds, err := svc.DayStats(context.Background(), "2026-03-02")
	require.NoError(t, err)
	require.InDelta(t, 3600, ds.TotalSeconds, 0.001)
	require.InDelta(t, 300+25*60, ds.BreakDuration, 0.001)
	require.Equal(t, 2, ds.BreakCount)
}

func TestWeekMonthYear(t *testing.T) {
	data := mondayData()
	data.Focus = append(data.Focus, focus("d", "GoLand", "2026-03-04T13:00:00Z", "2026-03-04T15:00:00Z"))
	data.Screenshots = []time.Time{at("2026-03-04T13:00:00Z"), at("2026-03-04T13:01:00Z")}
	repo := &fakeRepo{data: data}
	svc := newTestService(repo, "2027-01-10T00:00:00Z")
	ctx := context.Background()

	week, err := svc.Week(ctx, "2026-03-04")
	require.NoError(t, err)
	require.Equal(t, "2026-03-02", week.StartDate)
	require.Equal(t, "2026-03-08", week.EndDate)
	require.Len(t, week.Days, 7)
	require.Equal(t, 2, week.ActiveDays)
	require.Equal(t, "2026-03-04", week.MostActiveDay)
	require.InDelta(t, 11100, week.TotalSeconds, 0.001)
	require.InDelta(t, 5550, week.Averages.ActiveSeconds, 0.001)
	require.InDelta(t, 1, week.Averages.Screenshots, 0.001)

	month, err := svc.Month(ctx, 2026, 3)
	require.NoError(t, err)
	require.Len(t, month.Days, 31)
	require.Len(t, month.Weeks, 6)
	require.Equal(t, "2026-03-01", month.Weeks[0].EndDate)
	require.InDelta(t, 11100, month.Weeks[1].TotalSeconds, 0.001)
	require.Equal(t, 2, month.Weeks[1].ActiveDays)

	year, err := svc.Year(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, year.Months, 12)
	require.Equal(t, 3, year.MostActiveMonth)
	require.Equal(t, 2, year.Months[2].ActiveDays)
	require.Equal(t, 2, year.Months[2].Screenshots)

	_, err = svc.Month(ctx, 2026, 13)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestRollupCancelled(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2027-01-10T00:00:00Z")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Week(ctx, "2026-03-04")
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolutionFor(t *testing.T) {
	day := 24 * time.Hour
	require.Equal(t, ResolutionHourly, ResolutionFor(day))
	require.Equal(t, ResolutionDaily, ResolutionFor(day+time.Second))
	require.Equal(t, ResolutionDaily, ResolutionFor(60*day))
	require.Equal(t, ResolutionWeekly, ResolutionFor(120*day))
	require.Equal(t, ResolutionMonthly, ResolutionFor(3*365*day))
}

func TestCustomRange(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2027-01-10T00:00:00Z")
	ctx := context.Background()

	from := at("2026-01-05T00:00:00Z")
	stats, err := svc.CustomRange(ctx, from, from.AddDate(0, 0, 120))
	require.NoError(t, err)
	require.Equal(t, ResolutionWeekly, stats.Resolution)
	require.InDelta(t, 3900, stats.TotalSeconds, 0.001)
	require.Equal(t, 1, stats.ActiveDays)
	for _, b := range stats.Buckets {
		require.Equal(t, time.Monday, b.Start.Weekday())
	}

	hourly, err := svc.CustomRange(ctx, at("2026-03-02T09:15:00Z"), at("2026-03-02T12:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, ResolutionHourly, hourly.Resolution)
	require.Len(t, hourly.Buckets, 3)
	require.Equal(t, at("2026-03-02T09:15:00Z"), hourly.Buckets[0].Start)
	require.InDelta(t, 1800, hourly.Buckets[0].ActiveSeconds, 0.001)

	_, err = svc.CustomRange(ctx, from, from)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestCompare(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2027-01-10T00:00:00Z")

	cmp, err := svc.Compare(context.Background(), at("2026-03-02T00:00:00Z"), at("2026-03-03T00:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, at("2026-03-01T00:00:00Z"), cmp.Previous.From)
	require.InDelta(t, 3900, cmp.ActiveSeconds.Delta, 0.001)
	require.Nil(t, cmp.ActiveSeconds.PercentChange)

	d := NewDelta(150, 100)
	require.NotNil(t, d.PercentChange)
	require.InDelta(t, 50, *d.PercentChange, 0.001)
	d = NewDelta(50, 100)
	require.InDelta(t, -50, *d.PercentChange, 0.001)
}

func TestHeatmap(t *testing.T) {
	data := mondayData()
	data.Focus = append(data.Focus, focus("d", "GoLand", "2026-03-04T13:00:00Z", "2026-03-04T15:00:00Z"))
	repo := &fakeRepo{data: data}
	svc := newTestService(repo, "2027-01-10T00:00:00Z")

	cal, err := svc.Heatmap(context.Background(), 2026, 3)
	require.NoError(t, err)
	require.Equal(t, 31, cal.TotalDays)
	require.Equal(t, int(time.Sunday), cal.FirstDay)
	require.Equal(t, 2, cal.Days[1].Intensity)
	require.Equal(t, 4, cal.Days[3].Intensity)
	require.Equal(t, 0, cal.Days[0].Intensity)

	require.Equal(t, 1, intensity(1, 10000))
	require.Equal(t, 0, intensity(0, 10000))
}

func TestCacheKeyedByLatestWrite(t *testing.T) {
	repo := &fakeRepo{data: mondayData(), latest: at("2026-03-02T12:00:00Z")}
	svc := newTestService(repo, "2026-03-10T00:00:00Z")
	ctx := context.Background()

	_, err := svc.Timeline(ctx, "2026-03-02", GridOptions{})
	require.NoError(t, err)
	_, err = svc.Timeline(ctx, "2026-03-02", GridOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.snapshots)

	_, err = svc.Timeline(ctx, "2026-03-02", GridOptions{MergeSameApp: true})
	require.NoError(t, err)
	require.Equal(t, 2, repo.snapshots)

	repo.latest = at("2026-03-09T12:00:00Z")
	_, err = svc.Timeline(ctx, "2026-03-02", GridOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, repo.snapshots)
}

func TestCacheSkipsUnfinishedRanges(t *testing.T) {
	repo := &fakeRepo{data: mondayData()}
	svc := newTestService(repo, "2026-03-02T12:00:00Z")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.DayStats(ctx, "2026-03-02")
		require.NoError(t, err)
	}
	require.Equal(t, 2, repo.snapshots)
}

func TestResultCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newResultCache(2)
	k := func(extra string) cacheKey { return cacheKey{Kind: "day", Extra: extra} }
	c.put(k("a"), 1)
	c.put(k("b"), 2)
	_, ok := c.get(k("a"))
	require.True(t, ok)

	c.put(k("c"), 3)
	require.Equal(t, 2, c.count())
	_, ok = c.get(k("b"))
	require.False(t, ok)
	v, ok := c.get(k("a"))
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = c.get(k("c"))
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestResultCacheDisabled(t *testing.T) {
	c := newResultCache(0)
	c.put(cacheKey{Kind: "day"}, 1)
	_, ok := c.get(cacheKey{Kind: "day"})
	require.False(t, ok)
	require.Zero(t, c.count())
}

func TestCategories(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, "2026-03-02T12:00:00Z")
	ctx := context.Background()

	require.ErrorIs(t, svc.SetCategory(ctx, "Figma", "design"), ErrInvalidCategory)
	require.NoError(t, svc.SetCategory(ctx, "Figma", CategoryFocus))

	cat := NewCategorizer(repo.categories)
	require.Equal(t, CategoryFocus, cat.Category("figma"))
	require.Equal(t, CategoryComms, cat.Category("SLACK"))
	require.Equal(t, CategoryOther, cat.Category("Solitaire"))

	require.NoError(t, svc.DeleteCategory(ctx, "Figma"))
	stored, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("03/02/2026", time.UTC)
	require.ErrorIs(t, err, ErrInvalidDate)
	d, err := ParseDate("2026-03-02", time.UTC)
	require.NoError(t, err)
	require.Equal(t, at("2026-03-02T00:00:00Z"), d)
}
