package observer

import (
	"math"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultIDCacheLimit is the id-cache capacity observers start with.
const DefaultIDCacheLimit = 1024

// idCache is a bounded, insertion-ordered set of recently processed event
// ids. It recognizes duplicate deliveries and breaks relay cycles: an event
// echoed back by a bound peer arrives with its original id and is dropped.
//
// The LRU underneath is only ever added to and membership-checked, never
// read with Get, so its recency order is exactly insertion order and
// evicting the least recently used entry evicts the oldest inserted one.
// Not safe for concurrent use; the owning observer serializes access.
type idCache struct {
	limit int
	ids   *simplelru.LRU[uuid.UUID, struct{}]
}

func newIDCache(limit int) *idCache {
	// Cannot fail: the size handed to the LRU is always positive.
	ids, _ := simplelru.NewLRU[uuid.UUID, struct{}](effectiveLimit(limit), nil)
	return &idCache{
		limit: normalizeLimit(limit),
		ids:   ids,
	}
}

// normalizeLimit folds every "unbounded" spelling into 0.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return limit
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return math.MaxInt
	}
	return limit
}

func (c *idCache) contains(id uuid.UUID) bool {
	return c.ids.Contains(id)
}

// insert records id as the most recently seen, evicting the oldest entries
// while the cache is over capacity.
func (c *idCache) insert(id uuid.UUID) {
	c.ids.Add(id, struct{}{})
}

// setLimit changes the capacity. A non-positive limit removes the bound.
// Shrinking below the current size evicts oldest entries until the cache
// fits.
func (c *idCache) setLimit(limit int) {
	c.limit = normalizeLimit(limit)
	c.ids.Resize(effectiveLimit(limit))
}

// getLimit returns the configured capacity, 0 meaning unbounded.
func (c *idCache) getLimit() int {
	return c.limit
}

func (c *idCache) size() int {
	return c.ids.Len()
}

func (c *idCache) clear() {
	c.ids.Purge()
}
