package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddAndGet(t *testing.T) {
	s := NewStore(10, nil)

	item := s.Add("Go is compiled", CategoryFact, AddOptions{Source: "manual", Tags: []string{"go"}})
	require.NotEmpty(t, item.ID)
	assert.Equal(t, 0.8, item.Confidence)

	got, ok := s.Get(item.ID)
	require.True(t, ok)
	assert.Equal(t, "Go is compiled", got.Content)
	assert.Equal(t, 1, got.AccessCount)

	s.Get(item.ID)
	got, _ = s.Get(item.ID)
	assert.Equal(t, 3, got.AccessCount)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreEvictionBound(t *testing.T) {
	s := NewStore(3, nil)

	low := s.Add("low", CategoryFact, AddOptions{Confidence: 0.2})
	s.Add("mid", CategoryFact, AddOptions{Confidence: 0.8})
	s.Add("high", CategoryFact, AddOptions{Confidence: 0.9})
	s.Add("newer", CategoryFact, AddOptions{Confidence: 0.7})

	assert.Equal(t, 3, s.Size())

	// The least relevant item goes first; nothing retained scores
	// below what was evicted.
	_, ok := s.Get(low.ID)
	assert.False(t, ok)
	for _, it := range s.Snapshot() {
		assert.GreaterOrEqual(t, it.Confidence, 0.7)
	}
}

func TestStoreOnRemoveHook(t *testing.T) {
	s := NewStore(2, nil)
	current := time.Now()
	s.now = func() time.Time { return current }

	var removed []string
	s.SetOnRemove(func(id string) { removed = append(removed, id) })

	low := s.Add("low", CategoryFact, AddOptions{Confidence: 0.2})
	short := s.Add("short lived", CategoryAnswer, AddOptions{ExpiryHours: 0.001, Confidence: 0.9})
	// Third add overflows the cap and evicts the weakest item.
	kept := s.Add("strong", CategoryFact, AddOptions{Confidence: 0.9})
	assert.Equal(t, []string{low.ID}, removed)

	current = current.Add(time.Minute)
	s.CleanupExpired()
	assert.Equal(t, []string{low.ID, short.ID}, removed)

	s.Remove(kept.ID)
	assert.Equal(t, []string{low.ID, short.ID, kept.ID}, removed)
}

func TestStoreCleanupExpired(t *testing.T) {
	s := NewStore(10, nil)
	current := time.Now()
	s.now = func() time.Time { return current }

	s.Add("short lived", CategoryAnswer, AddOptions{ExpiryHours: 0.001})
	s.Add("long lived", CategoryAnswer, AddOptions{ExpiryHours: 24})

	current = current.Add(time.Minute)
	assert.Len(t, s.GetExpired(), 1)
	assert.Equal(t, 1, s.CleanupExpired())
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 0, s.CleanupExpired())
}

func TestStoreCategoryDefaultExpiry(t *testing.T) {
	s := NewStore(10, map[string]float64{"answer": 1, "fact": 0})
	current := time.Now()
	s.now = func() time.Time { return current }

	answer := s.Add("expires by default", CategoryAnswer, AddOptions{})
	fact := s.Add("never expires", CategoryFact, AddOptions{})

	assert.Equal(t, current.Add(time.Hour), answer.ExpiresAt)
	assert.True(t, fact.ExpiresAt.IsZero())
}

func TestStoreFindByCategory(t *testing.T) {
	s := NewStore(10, nil)
	s.Add("a", CategoryFact, AddOptions{})
	s.Add("b", CategoryFact, AddOptions{})
	s.Add("c", CategorySkill, AddOptions{})

	assert.Len(t, s.FindByCategory(CategoryFact), 2)
	assert.Len(t, s.FindByCategory(CategorySkill), 1)
	assert.Empty(t, s.FindByCategory(CategoryBusiness))
}

func TestStoreFindByTags(t *testing.T) {
	s := NewStore(10, nil)
	s.Add("a", CategoryFact, AddOptions{Tags: []string{"Go", "backend"}})
	s.Add("b", CategoryFact, AddOptions{Tags: []string{"go"}})
	s.Add("c", CategoryFact, AddOptions{Tags: []string{"frontend"}})

	// Tag lookup is case-insensitive and matches on any shared tag,
	// returning each item once.
	found := s.FindByTags([]string{"GO", "backend"})
	assert.Len(t, found, 2)

	assert.Empty(t, s.FindByTags([]string{"missing"}))
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(10, nil)
	item := s.Add("a", CategoryFact, AddOptions{Tags: []string{"x"}})

	assert.True(t, s.Remove(item.ID))
	assert.False(t, s.Remove(item.ID))
	assert.Equal(t, 0, s.Size())
	assert.Empty(t, s.FindByTags([]string{"x"}))
}

func TestStoreRemoveWhere(t *testing.T) {
	s := NewStore(10, nil)
	s.Add("keep", CategoryFact, AddOptions{Confidence: 0.9})
	s.Add("drop", CategoryFact, AddOptions{Confidence: 0.1})
	s.Add("drop too", CategoryFact, AddOptions{Confidence: 0.2})

	removed := s.RemoveWhere(func(it *Item) bool { return it.Confidence < 0.5 })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Size())
}

func TestStoreSnapshotSorted(t *testing.T) {
	s := NewStore(10, nil)
	s.Add("a", CategoryFact, AddOptions{Confidence: 0.3})
	s.Add("b", CategoryFact, AddOptions{Confidence: 0.9})
	s.Add("c", CategoryFact, AddOptions{Confidence: 0.6})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	now := time.Now()
	for i := 1; i < len(snapshot); i++ {
		assert.GreaterOrEqual(t,
			snapshot[i-1].RelevanceScore(now), snapshot[i].RelevanceScore(now))
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore(10, nil)
	s.Add("a", CategoryFact, AddOptions{Tags: []string{"x", "y"}})
	s.Add("b", CategorySkill, AddOptions{})

	stats := s.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 10, stats.MaxItems)
	assert.Equal(t, 1, stats.ByCategory[CategoryFact])
	assert.Equal(t, 2, stats.ByFreshness[FreshnessFresh])
	assert.Equal(t, 2, stats.TagCount)
}

func TestStoreConfidenceClamped(t *testing.T) {
	s := NewStore(10, nil)
	item := s.Add("a", CategoryFact, AddOptions{Confidence: 1.7})
	assert.Equal(t, 1.0, item.Confidence)
}
