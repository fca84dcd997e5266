package capture

import (
	"sort"
	"sync"
)

// Queue buffers observations between collectors and the runner.
type Queue struct {
	mu    sync.Mutex
	limit int
	items []Observation
}

// NewQueue returns a queue holding at most limit observations. Zero means unbounded.
func NewQueue(limit int) *Queue {
	return &Queue{limit: limit}
}

// Enqueue validates and buffers observations. Either all are accepted or none.
func (q *Queue) Enqueue(obs ...Observation) error {
	normalized := make([]Observation, 0, len(obs))
	for _, o := range obs {
		n, err := Normalize(o)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && len(q.items)+len(normalized) > q.limit {
		return ErrQueueFull
	}
	q.items = append(q.items, normalized...)
	return nil
}

// Drain removes and returns everything queued, oldest timestamp first.
func (q *Queue) Drain() []Observation {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp().Before(items[j].Timestamp())
	})
	return items
}

// Len returns the number of queued observations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
