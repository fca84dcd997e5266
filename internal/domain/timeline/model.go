package timeline

import "time"

// Category names used in breakdowns.
const (
	CategoryFocus    = "focus"
	CategoryMeetings = "meetings"
	CategoryComms    = "comms"
	CategoryOther    = "other"
	CategoryBreaks   = "breaks"
)

// ActivityCategories lists the categories an app can belong to.
var ActivityCategories = []string{CategoryFocus, CategoryMeetings, CategoryComms, CategoryOther}

// GridOptions tunes the hourly grid.
type GridOptions struct {
	// MinDuration hides blocks shorter than this.
	MinDuration time.Duration
	// MergeSameApp joins consecutive blocks of one app separated by at most MergeGap.
	MergeSameApp bool
	MergeGap     time.Duration
}

// TimelineGridData is everything the day timeline view renders.
type TimelineGridData struct {
	Date          string                             `json:"date"`
	DayStats      *DayStats                          `json:"day_stats"`
	TopApps       []TopApp                           `json:"top_apps"`
	HourlyGrid    map[int]map[string][]ActivityBlock `json:"hourly_grid"`
	HourlySeconds [24]float64                        `json:"hourly_seconds"`
	Sessions      []SessionBlock                     `json:"sessions"`
	Categories    map[string]string                  `json:"categories"`
	GitEvents     map[int][]GitEventDisplay          `json:"git_events"`
	ShellEvents   map[int][]ShellEventDisplay        `json:"shell_events"`
	FileEvents    map[int][]FileEventDisplay         `json:"file_events"`
	BrowserEvents map[int][]BrowserEventDisplay      `json:"browser_events"`
	AFKBlocks     map[int][]AFKDisplay               `json:"afk_blocks"`
}

// Position places an item on the hourly grid.
type Position struct {
	HourOffset    int     `json:"hour_offset"`
	MinuteOffset  int     `json:"minute_offset"`
	PixelPosition float64 `json:"pixel_position"`
}

// ActivityBlock is one focus span inside a single hour.
type ActivityBlock struct {
	EventID           string    `json:"event_id"`
	WindowTitle       string    `json:"window_title"`
	AppName           string    `json:"app_name"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	DurationSeconds   float64   `json:"duration_seconds"`
	Category          string    `json:"category"`
	PixelHeight       float64   `json:"pixel_height"`
	ProjectID         string    `json:"project_id,omitempty"`
	ProjectName       string    `json:"project_name,omitempty"`
	ProjectColor      string    `json:"project_color,omitempty"`
	ProjectSource     string    `json:"project_source,omitempty"`
	ProjectConfidence float64   `json:"project_confidence,omitempty"`
	Position
}

// SessionBlock places a session on the grid.
type SessionBlock struct {
	SessionID       string     `json:"session_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	SummaryID       *string    `json:"summary_id,omitempty"`
	Category        string     `json:"category"`
	PixelHeight     float64    `json:"pixel_height"`
	Position
}

type GitEventDisplay struct {
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	Message        string    `json:"message"`
	MessageSubject string    `json:"message_subject"`
	ShortHash      string    `json:"short_hash"`
	Repository     string    `json:"repository"`
	Branch         string    `json:"branch"`
	Insertions     int       `json:"insertions"`
	Deletions      int       `json:"deletions"`
	Position
}

type ShellEventDisplay struct {
	EventID          string    `json:"event_id"`
	Timestamp        time.Time `json:"timestamp"`
	Command          string    `json:"command"`
	ShellType        string    `json:"shell_type"`
	WorkingDirectory string    `json:"working_directory"`
	ExitCode         int       `json:"exit_code"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Position
}

type FileEventDisplay struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	Directory     string    `json:"directory"`
	FileExtension string    `json:"file_extension"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	WatchCategory string    `json:"watch_category"`
	OldPath       string    `json:"old_path,omitempty"`
	Position
}

type BrowserEventDisplay struct {
	EventID              string    `json:"event_id"`
	Timestamp            time.Time `json:"timestamp"`
	URL                  string    `json:"url"`
	Title                string    `json:"title"`
	Domain               string    `json:"domain"`
	Browser              string    `json:"browser"`
	VisitDurationSeconds int64     `json:"visit_duration_seconds"`
	Position
}

// AFKDisplay is an AFK block clipped to the day.
type AFKDisplay struct {
	BlockID         string    `json:"block_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Open            bool      `json:"open"`
	DurationSeconds float64   `json:"duration_seconds"`
	TriggerType     string    `json:"trigger_type"`
	PixelHeight     float64   `json:"pixel_height"`
	Position
}

// DayStats summarizes one day.
type DayStats struct {
	TotalSeconds      float64    `json:"total_seconds"`
	TotalHours        float64    `json:"total_hours"`
	BreakCount        int        `json:"break_count"`
	BreakDuration     float64    `json:"break_duration"`
	LongestFocus      float64    `json:"longest_focus"`
	LongestFocusStart *time.Time `json:"longest_focus_start,omitempty"`
	LongestFocusEnd   *time.Time `json:"longest_focus_end,omitempty"`
	// TimeSinceLastBreak is -1 for past days and for days without a finished break.
	TimeSinceLastBreak float64            `json:"time_since_last_break"`
	DaySpan            *DaySpan           `json:"day_span,omitempty"`
	Breakdown          map[string]float64 `json:"breakdown"`
	BreakdownPercent   map[string]float64 `json:"breakdown_percent"`
}

// DaySpan is the first to last activity of a day.
type DaySpan struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	SpanHours float64   `json:"span_hours"`
}

// TopApp is an app with its active time.
type TopApp struct {
	AppName  string  `json:"app_name"`
	Duration float64 `json:"duration"`
	Category string  `json:"category"`
}

// DailyStats is the rollup unit for week, month and year views.
type DailyStats struct {
	Date             string             `json:"date"`
	ActiveSeconds    float64            `json:"active_seconds"`
	ActiveMinutes    int64              `json:"active_minutes"`
	TotalScreenshots int                `json:"total_screenshots"`
	TotalSessions    int                `json:"total_sessions"`
	ShellCommands    int                `json:"shell_commands"`
	GitCommits       int                `json:"git_commits"`
	FilesModified    int                `json:"files_modified"`
	SitesVisited     int                `json:"sites_visited"`
	BreakCount       int                `json:"break_count"`
	BreakSeconds     float64            `json:"break_seconds"`
	TopApps          []TopApp           `json:"top_apps"`
	Breakdown        map[string]float64 `json:"breakdown"`
}

// Averages are per active day.
type Averages struct {
	ActiveSeconds float64 `json:"active_seconds"`
	Screenshots   float64 `json:"screenshots"`
	Sessions      float64 `json:"sessions"`
	GitCommits    float64 `json:"git_commits"`
	ShellCommands float64 `json:"shell_commands"`
}

// WeekStats covers Monday through Sunday.
type WeekStats struct {
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	Days              []DailyStats       `json:"days"`
	TotalSeconds      float64            `json:"total_seconds"`
	ActiveDays        int                `json:"active_days"`
	MostActiveDay     string             `json:"most_active_day"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	Averages          Averages           `json:"averages"`
}

// WeekSlice is one week inside a month.
type WeekSlice struct {
	WeekNumber   int     `json:"week_number"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	TotalSeconds float64 `json:"total_seconds"`
	ActiveDays   int     `json:"active_days"`
}

// MonthStats covers one calendar month.
type MonthStats struct {
	Year              int                `json:"year"`
	Month             int                `json:"month"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	Days              []DailyStats       `json:"days"`
	Weeks             []WeekSlice        `json:"weeks"`
	TotalSeconds      float64            `json:"total_seconds"`
	ActiveDays        int                `json:"active_days"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	Averages          Averages           `json:"averages"`
}

// MonthSummary is one month inside a year.
type MonthSummary struct {
	Month        int     `json:"month"`
	TotalSeconds float64 `json:"total_seconds"`
	ActiveDays   int     `json:"active_days"`
	Screenshots  int     `json:"screenshots"`
	Sessions     int     `json:"sessions"`
	GitCommits   int     `json:"git_commits"`
}

// YearlyStats covers one calendar year.
type YearlyStats struct {
	Year              int                `json:"year"`
	Months            []MonthSummary     `json:"months"`
	TotalSeconds      float64            `json:"total_seconds"`
	ActiveDays        int                `json:"active_days"`
	MostActiveMonth   int                `json:"most_active_month"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	Averages          Averages           `json:"averages"`
}

// Resolution is the bucket size of a custom range.
type Resolution string

const (
	ResolutionHourly  Resolution = "hourly"
	ResolutionDaily   Resolution = "daily"
	ResolutionWeekly  Resolution = "weekly"
	ResolutionMonthly Resolution = "monthly"
)

// Bucket is one slot of a custom range.
type Bucket struct {
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	Label         string             `json:"label"`
	ActiveSeconds float64            `json:"active_seconds"`
	Screenshots   int                `json:"screenshots"`
	Sessions      int                `json:"sessions"`
	Breakdown     map[string]float64 `json:"breakdown"`
}

// CustomRangeStats aggregates an arbitrary range at an automatic resolution.
type CustomRangeStats struct {
	From              time.Time          `json:"from"`
	To                time.Time          `json:"to"`
	Resolution        Resolution         `json:"resolution"`
	Buckets           []Bucket           `json:"buckets"`
	TotalSeconds      float64            `json:"total_seconds"`
	ActiveDays        int                `json:"active_days"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TopApps           []TopApp           `json:"top_apps"`
}

// Delta compares one measure across two periods.
// PercentChange is nil when the previous value is zero.
type Delta struct {
	Current       float64  `json:"current"`
	Previous      float64  `json:"previous"`
	Delta         float64  `json:"delta"`
	PercentChange *float64 `json:"percent_change"`
}

// Period is a half-open time range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Comparison contrasts two periods.
type Comparison struct {
	Current       Period           `json:"current"`
	Previous      Period           `json:"previous"`
	ActiveSeconds Delta            `json:"active_seconds"`
	Screenshots   Delta            `json:"screenshots"`
	Sessions      Delta            `json:"sessions"`
	BreakSeconds  Delta            `json:"break_seconds"`
	GitCommits    Delta            `json:"git_commits"`
	Categories    map[string]Delta `json:"categories"`
}

// CalendarDay is one heatmap cell.
type CalendarDay struct {
	Date          string  `json:"date"`
	DayOfMonth    int     `json:"day_of_month"`
	ActiveSeconds float64 `json:"active_seconds"`
	Screenshots   int     `json:"screenshots"`
	Sessions      int     `json:"sessions"`
	Intensity     int     `json:"intensity"`
}

// CalendarData is a month heatmap.
type CalendarData struct {
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	FirstDay  int           `json:"first_day"`
	TotalDays int           `json:"total_days"`
	Days      []CalendarDay `json:"days"`
}
