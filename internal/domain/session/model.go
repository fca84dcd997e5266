package session

import "time"

// TriggerType records what started an AFK block.
type TriggerType string

const (
	TriggerIdleTimeout TriggerType = "idle_timeout"
	TriggerSystemSleep TriggerType = "system_sleep"
	TriggerManual      TriggerType = "manual"
)

// Valid reports whether t is a known trigger.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerIdleTimeout, TriggerSystemSleep, TriggerManual:
		return true
	}
	return false
}

// Session is a contiguous period of activity bounded by AFK blocks or a day boundary.
type Session struct {
	ID              string     `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	ScreenshotCount int        `json:"screenshot_count"`
	SummaryID       *string    `json:"summary_id,omitempty"`
	ProjectID       *string    `json:"project_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Open reports whether the session has no end yet.
func (s Session) Open() bool {
	return s.EndTime == nil
}

// Duration returns the closed length, or zero while open.
func (s Session) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// AFKBlock is a period of inactivity. It is terminal once EndTime is set.
type AFKBlock struct {
	ID              string      `json:"id"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	DurationSeconds int64       `json:"duration_seconds"`
	TriggerType     TriggerType `json:"trigger_type"`
}

// Duration returns the closed length, or zero while open.
func (b AFKBlock) Duration() time.Duration {
	if b.EndTime == nil {
		return 0
	}
	return b.EndTime.Sub(b.StartTime)
}

// Gap records a short session that was discarded after a long break.
type Gap struct {
	ID               string    `json:"id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DroppedSessionID string    `json:"dropped_session_id"`
	AFKBlockID       string    `json:"afk_block_id"`
}

// Summary is an externally produced description of a closed session.
// Its fields are stored as given.
type Summary struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Summary     string    `json:"summary"`
	Explanation string    `json:"explanation,omitempty"`
	Confidence  string    `json:"confidence,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RestoreState is the persisted segmenter position loaded at startup.
type RestoreState struct {
	// Open is the session without an end, if any.
	Open *Session
	// OpenAFK is the AFK block without an end, if any.
	OpenAFK *AFKBlock
	// Previous is the latest closed session.
	Previous *Session
	// Bridge is the closed AFK block that ends where Open starts.
	Bridge *AFKBlock
	// LastSeen is the newest activity timestamp that has been committed.
	LastSeen time.Time
}

// ListOptions filters session listings.
type ListOptions struct {
	From  time.Time
	To    time.Time
	Limit int
}
