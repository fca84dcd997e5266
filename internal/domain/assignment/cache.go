package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hmahadik/traq/internal/domain/project"
)

const candidatesKey = "candidates"

// candidateCache holds compiled candidates for at most ttl. A non-positive ttl
// reloads on every call.
type candidateCache struct {
	mu    sync.Mutex
	src   Projects
	ttl   time.Duration
	items *expirable.LRU[string, []project.Candidate]
}

func newCandidateCache(src Projects, ttl time.Duration) *candidateCache {
	c := &candidateCache{src: src, ttl: ttl}
	if ttl > 0 {
		c.items = expirable.NewLRU[string, []project.Candidate](1, nil, ttl)
	}
	return c
}

func (c *candidateCache) get(ctx context.Context) ([]project.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items != nil {
		if items, ok := c.items.Get(candidatesKey); ok {
			return items, nil
		}
	}
	items, err := c.src.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	if c.items != nil {
		c.items.Add(candidatesKey, items)
	}
	return items, nil
}

func (c *candidateCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items != nil {
		c.items.Purge()
	}
}
