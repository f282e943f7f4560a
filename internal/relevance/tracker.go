package relevance

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pds-agent/core/internal/temporal"
)

// Entry tracks one information source. CombinedScore is always
// freshness times relevance.
type Entry struct {
	SourceID       string
	SourceName     string
	FirstSeen      time.Time
	LastAccessed   time.Time
	AccessCount    int
	FreshnessScore float64
	RelevanceScore float64
	Tags           []string
}

func (e *Entry) AgeDays(now time.Time) float64 {
	return now.Sub(e.FirstSeen).Hours() / 24
}

func (e *Entry) CombinedScore() float64 {
	return e.FreshnessScore * e.RelevanceScore
}

type Stats struct {
	Count        int
	MaxEntries   int
	AvgFreshness float64
	StaleCount   int
}

// Tracker keeps per-source freshness and relevance, evicting the
// lowest combined score when over capacity.
type Tracker struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	decay      *temporal.Decay
	staleLimit float64
	now        func() time.Time
}

func NewTracker(maxEntries int, staleThreshold float64, decay *temporal.Decay) *Tracker {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	if staleThreshold <= 0 {
		staleThreshold = 0.3
	}
	if decay == nil {
		decay = temporal.NewDecay()
	}
	return &Tracker{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		decay:      decay,
		staleLimit: staleThreshold,
		now:        time.Now,
	}
}

// Track registers a source or refreshes an existing one. Repeat calls
// bump the access count and overwrite relevance with the latest
// evidence.
func (t *Tracker) Track(sourceID, sourceName string, relevance float64, tags []string) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, ok := t.entries[sourceID]; ok {
		e.AccessCount++
		e.LastAccessed = now
		e.RelevanceScore = relevance
		return e
	}

	if sourceName == "" {
		sourceName = sourceID
	}
	e := &Entry{
		SourceID:       sourceID,
		SourceName:     sourceName,
		FirstSeen:      now,
		LastAccessed:   now,
		AccessCount:    1,
		FreshnessScore: 1.0,
		RelevanceScore: relevance,
		Tags:           tags,
	}
	t.entries[sourceID] = e
	t.enforceLimit()
	return e
}

func (t *Tracker) Get(sourceID string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[sourceID]
	return e, ok
}

func (t *Tracker) Remove(sourceID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[sourceID]; !ok {
		return false
	}
	delete(t.entries, sourceID)
	return true
}

// UpdateFreshness recomputes freshness for every entry from its age
// and returns how many scores moved.
func (t *Tracker) UpdateFreshness() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateFreshnessLocked()
}

func (t *Tracker) updateFreshnessLocked() int {
	now := t.now()
	var updated int
	for _, e := range t.entries {
		score := t.decay.Exponential(e.AgeDays(now))
		if math.Abs(score-e.FreshnessScore) > 0.01 {
			e.FreshnessScore = score
			updated++
		}
	}
	return updated
}

func (t *Tracker) GetStale(threshold float64) []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if threshold <= 0 {
		threshold = t.staleLimit
	}
	t.updateFreshnessLocked()
	var stale []*Entry
	for _, e := range t.entries {
		if e.CombinedScore() < threshold {
			stale = append(stale, e)
		}
	}
	return stale
}

func (t *Tracker) GetTop(n int) []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.updateFreshnessLocked()
	entries := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelevanceScore > entries[j].RelevanceScore
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{Count: len(t.entries), MaxEntries: t.maxEntries}
	if len(t.entries) == 0 {
		return stats
	}
	var sum float64
	for _, e := range t.entries {
		sum += e.FreshnessScore
		if e.CombinedScore() < t.staleLimit {
			stats.StaleCount++
		}
	}
	stats.AvgFreshness = sum / float64(len(t.entries))
	return stats
}

func (t *Tracker) enforceLimit() {
	if len(t.entries) <= t.maxEntries {
		return
	}
	entries := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CombinedScore() < entries[j].CombinedScore()
	})
	for _, e := range entries[:len(entries)-t.maxEntries] {
		delete(t.entries, e.SourceID)
	}
}
