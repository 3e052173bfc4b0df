package geo

import (
	"container/list"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheStats is a point-in-time view of region residency.
type CacheStats struct {
	Regions   int
	Bytes     int
	MaxBytes  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type cacheEntry struct {
	key    uint32
	region *Region
}

// regionCache keeps decoded regions resident up to a byte budget, evicting the
// least recently used. Concurrent misses on one key share a single load.
type regionCache struct {
	mu       sync.Mutex
	entries  map[uint32]*list.Element
	order    *list.List // front = most recently used
	bytes    int
	maxBytes int

	hits      uint64
	misses    uint64
	evictions uint64

	loads singleflight.Group
}

func newRegionCache(maxBytes int) *regionCache {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}
	return &regionCache{
		entries:  make(map[uint32]*list.Element),
		order:    list.New(),
		maxBytes: maxBytes,
	}
}

// get returns the region for key, calling load on a miss.
func (c *regionCache) get(key uint32, load func() *Region) *Region {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		c.hits++
		r := el.Value.(*cacheEntry).region
		c.mu.Unlock()
		return r
	}
	c.misses++
	c.mu.Unlock()

	v, _, _ := c.loads.Do(regionFlightKey(key), func() (any, error) {
		r := load()
		c.put(key, r)
		return r, nil
	})
	return v.(*Region)
}

func (c *regionCache) put(key uint32, r *Region) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, region: r})
	c.bytes += r.SizeBytes()

	// Keep at least the newest entry even if it alone exceeds the budget.
	for c.bytes > c.maxBytes && c.order.Len() > 1 {
		oldest := c.order.Back()
		e := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, e.key)
		c.bytes -= e.region.SizeBytes()
		c.evictions++
	}
}

func (c *regionCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Regions:   len(c.entries),
		Bytes:     c.bytes,
		MaxBytes:  c.maxBytes,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func regionFlightKey(key uint32) string {
	return strconv.FormatUint(uint64(key), 16)
}
