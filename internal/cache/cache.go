package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/pds-agent/core/internal/metrics"
)

type entry struct {
	query        string
	response     string
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int
}

type Hit struct {
	Query    string
	Response string
}

type Stats struct {
	Entries    int
	MaxEntries int
	Hits       int
	Misses     int
	HitRate    float64
}

// Cache memoizes query to response pairs. Keys are normalized by
// case and whitespace folding, so lookups are exact after
// normalization rather than similarity based.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	hits       int
	misses     int
}

func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
	}
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (c *Cache) Put(query, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalize(query)
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	now := time.Now()
	c.entries[key] = &entry{
		query:        query,
		response:     response,
		createdAt:    now,
		lastAccessed: now,
	}
}

func (c *Cache) Get(query string) (Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[normalize(query)]
	if !ok {
		c.misses++
		metrics.CacheMisses.Inc()
		return Hit{}, false
	}
	e.accessCount++
	e.lastAccessed = time.Now()
	c.hits++
	metrics.CacheHits.Inc()
	return Hit{Query: e.query, Response: e.response}, true
}

func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
