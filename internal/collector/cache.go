package collector

import (
	"context"
	"sync"
	"time"
)

// nodeCache memoizes the eligible-node list for a short validity window so
// back-to-back cycles do not re-query the cluster. Failed fetches are never
// cached.
type nodeCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	nodes     []string
	fetchedAt time.Time
	valid     bool
}

func newNodeCache(ttl time.Duration) *nodeCache {
	return &nodeCache{ttl: ttl, now: time.Now}
}

// get returns the cached node list when it is younger than the TTL; otherwise
// it calls fetch, stores the result, and returns it. The second return value
// reports whether the value came from the cache.
func (c *nodeCache) get(ctx context.Context, fetch func(context.Context) ([]string, error)) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.nodes, true, nil
	}

	nodes, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	c.nodes = nodes
	c.fetchedAt = c.now()
	c.valid = true
	return nodes, false, nil
}
