package timeline

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// cacheKey identifies one computed aggregate. Times are unix nanoseconds.
type cacheKey struct {
	Kind        string
	From        int64
	To          int64
	Resolution  string
	LatestWrite int64
	Extra       string
}

func newCacheKey(kind string, from, to, latestWrite time.Time, res Resolution, extra string) cacheKey {
	return cacheKey{
		Kind:        kind,
		From:        from.UnixNano(),
		To:          to.UnixNano(),
		Resolution:  string(res),
		LatestWrite: latestWrite.UnixNano(),
		Extra:       extra,
	}
}

// resultCache is a bounded LRU of computed aggregates keyed by the hash of a cacheKey.
// Entries keyed by an older latest-write time are never hit again and age out.
// A nil *resultCache caches nothing.
type resultCache struct {
	entries *lru.Cache[uint64, any]
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[uint64, any](size)
	if err != nil {
		return nil
	}
	return &resultCache{entries: entries}
}

func (c *resultCache) get(key cacheKey) (any, bool) {
	if c == nil {
		return nil, false
	}
	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, false
	}
	return c.entries.Get(h)
}

func (c *resultCache) put(key cacheKey, v any) {
	if c == nil {
		return
	}
	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return
	}
	c.entries.Add(h, v)
}

func (c *resultCache) count() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
