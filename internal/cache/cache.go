package cache

import (
	"sync"
	"sync/atomic"

	"github.com/routecue/waypointd/pkg/core"
)

// Searcher is the amenity search being cached.
type Searcher interface {
	SearchOnPath(path []core.LatLon, radius int) []core.AmenityMatch
}

// searchKey identifies a path cheaply by its length and end points.
type searchKey struct {
	n           int
	first, last core.LatLon
	radius      int
}

// SearchCache memoizes amenity searches so per-category rebuilds on the same
// route do not repeat the search. Entries are evicted oldest first.
type SearchCache struct {
	m        sync.Mutex
	searcher Searcher
	limit    int
	entries  map[searchKey][]core.AmenityMatch
	order    []searchKey

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSearchCache wraps searcher keeping at most limit results.
func NewSearchCache(searcher Searcher, limit int) *SearchCache {
	if limit <= 0 {
		limit = 1
	}
	return &SearchCache{
		searcher: searcher,
		limit:    limit,
		entries:  make(map[searchKey][]core.AmenityMatch),
	}
}

// SearchOnPath returns the cached result or runs the search.
func (c *SearchCache) SearchOnPath(path []core.LatLon, radius int) []core.AmenityMatch {
	if len(path) == 0 {
		return nil
	}
	key := searchKey{n: len(path), first: path[0], last: path[len(path)-1], radius: radius}

	c.m.Lock()
	if res, ok := c.entries[key]; ok {
		c.m.Unlock()
		c.hits.Add(1)
		return res
	}
	c.m.Unlock()

	c.misses.Add(1)
	res := c.searcher.SearchOnPath(path, radius)

	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = res
	for len(c.order) > c.limit {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	return res
}

// Reset drops all cached results, e.g. after the amenity source changed.
func (c *SearchCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = make(map[searchKey][]core.AmenityMatch)
	c.order = nil
}

// Len counts cached results.
func (c *SearchCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *SearchCache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
