package activity

import "time"

// ListOptions filters activity rows for bulk reads.
type ListOptions struct {
	Types      []EventType
	From       time.Time
	To         time.Time
	Unassigned bool // only rows without a project
	AfterID    string
	Limit      int
}
