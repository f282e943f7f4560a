package knowledge

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/internal/metrics"
	"github.com/pds-agent/core/pkg/logger"
)

type AddOptions struct {
	Source      string
	Tags        []string
	Confidence  float64
	ExpiryHours float64
}

type StoreStats struct {
	Total       int
	MaxItems    int
	ByCategory  map[Category]int
	ByFreshness map[Freshness]int
	Expired     int
	TagCount    int
}

// Store holds knowledge items with capacity-bounded eviction. All
// mutation is serialized through one mutex; callers treat returned
// items as read-only snapshots.
type Store struct {
	mu         sync.Mutex
	items      map[string]*Item
	byCategory map[Category]map[string]bool
	byTag      map[string]map[string]bool
	maxItems   int
	// Default expiry in hours per category, applied when AddOptions
	// does not set one. Zero means never expires.
	expiryHours map[Category]float64
	onRemove    func(id string)
	now         func() time.Time
}

func NewStore(maxItems int, expiryHours map[string]float64) *Store {
	if maxItems <= 0 {
		maxItems = 10000
	}
	defaults := make(map[Category]float64, len(expiryHours))
	for cat, hours := range expiryHours {
		defaults[ParseCategory(cat)] = hours
	}
	return &Store{
		items:       make(map[string]*Item),
		byCategory:  make(map[Category]map[string]bool),
		byTag:       make(map[string]map[string]bool),
		maxItems:    maxItems,
		expiryHours: defaults,
		now:         time.Now,
	}
}

func (s *Store) Add(content string, category Category, opts AddOptions) *Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	item := newItem(content, category, now)
	item.Source = opts.Source
	item.Tags = opts.Tags
	if opts.Confidence > 0 {
		item.Confidence = math.Min(1, opts.Confidence)
	}

	expiryHours := opts.ExpiryHours
	if expiryHours == 0 {
		expiryHours = s.expiryHours[category]
	}
	if expiryHours > 0 {
		item.ExpiresAt = now.Add(time.Duration(expiryHours * float64(time.Hour)))
	}

	for len(s.items) >= s.maxItems {
		s.evictLeastRelevant(now)
	}

	s.items[item.ID] = item
	s.indexItem(item)
	metrics.KnowledgeItems.Set(float64(len(s.items)))

	logger.Debug("knowledge item added",
		zap.String("id", item.ID),
		zap.String("category", string(category)),
		zap.Int("total", len(s.items)),
	)
	return item
}

// Get returns the item and bumps its access count. Unknown ids return
// nil, false.
func (s *Store) Get(id string) (*Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, false
	}
	item.AccessCount++
	item.LastAccessed = s.now()
	return item, true
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id string) bool {
	item, ok := s.items[id]
	if !ok {
		return false
	}
	delete(s.items, id)
	delete(s.byCategory[item.Category], id)
	for _, tag := range item.Tags {
		delete(s.byTag[strings.ToLower(tag)], id)
	}
	if s.onRemove != nil {
		s.onRemove(id)
	}
	metrics.KnowledgeItems.Set(float64(len(s.items)))
	return true
}

// SetOnRemove registers a hook fired for every item leaving the store,
// whatever the reason. Secondary indexes use it to stay in sync.
func (s *Store) SetOnRemove(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemove = fn
}

func (s *Store) FindByCategory(category Category) []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []*Item
	for id := range s.byCategory[category] {
		if item, ok := s.items[id]; ok {
			found = append(found, item)
		}
	}
	return found
}

// FindByTags returns items sharing at least one of the given tags.
func (s *Store) FindByTags(tags []string) []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var found []*Item
	for _, tag := range tags {
		for id := range s.byTag[strings.ToLower(tag)] {
			if seen[id] {
				continue
			}
			seen[id] = true
			if item, ok := s.items[id]; ok {
				found = append(found, item)
			}
		}
	}
	return found
}

func (s *Store) GetExpired() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*Item
	for _, item := range s.items {
		if item.IsExpired(now) {
			expired = append(expired, item)
		}
	}
	return expired
}

func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int
	for id, item := range s.items {
		if item.IsExpired(now) {
			s.removeLocked(id)
			removed++
		}
	}
	if removed > 0 {
		metrics.KnowledgeExpirations.Add(float64(removed))
		logger.Info("expired knowledge removed", zap.Int("count", removed))
	}
	return removed
}

// RemoveWhere deletes every item the predicate selects and returns the
// count. The pruner uses it for confidence and staleness sweeps.
func (s *Store) RemoveWhere(predicate func(*Item) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, item := range s.items {
		if predicate(item) {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the items sorted by relevance descending.
func (s *Store) Snapshot() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	items := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RelevanceScore(now) > items[j].RelevanceScore(now)
	})
	return items
}

func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := StoreStats{
		Total:       len(s.items),
		MaxItems:    s.maxItems,
		ByCategory:  make(map[Category]int),
		ByFreshness: make(map[Freshness]int),
		TagCount:    len(s.byTag),
	}
	for _, item := range s.items {
		stats.ByCategory[item.Category]++
		stats.ByFreshness[item.Freshness(now)]++
		if item.IsExpired(now) {
			stats.Expired++
		}
	}
	return stats
}

func (s *Store) indexItem(item *Item) {
	cat := s.byCategory[item.Category]
	if cat == nil {
		cat = make(map[string]bool)
		s.byCategory[item.Category] = cat
	}
	cat[item.ID] = true

	for _, tag := range item.Tags {
		key := strings.ToLower(tag)
		ids := s.byTag[key]
		if ids == nil {
			ids = make(map[string]bool)
			s.byTag[key] = ids
		}
		ids[item.ID] = true
	}
}

func (s *Store) evictLeastRelevant(now time.Time) {
	var worst *Item
	var worstScore float64
	for _, item := range s.items {
		score := item.RelevanceScore(now)
		if worst == nil || score < worstScore {
			worst = item
			worstScore = score
		}
	}
	if worst != nil {
		s.removeLocked(worst.ID)
		metrics.KnowledgeEvictions.Inc()
		logger.Debug("knowledge item evicted",
			zap.String("id", worst.ID),
			zap.Float64("relevance", worstScore),
		)
	}
}
