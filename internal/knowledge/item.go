package knowledge

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFact         Category = "fact"
	CategorySkill        Category = "skill"
	CategoryAnswer       Category = "answer"
	CategoryDocument     Category = "document"
	CategoryConversation Category = "conversation"
	CategoryBusiness     Category = "business"
	CategoryGeneral      Category = "general"
)

// ParseCategory maps any string to a known category, defaulting to
// general for unknown values.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryFact, CategorySkill, CategoryAnswer, CategoryDocument,
		CategoryConversation, CategoryBusiness, CategoryGeneral:
		return Category(s)
	}
	return CategoryGeneral
}

type Freshness string

const (
	FreshnessFresh   Freshness = "fresh"
	FreshnessRecent  Freshness = "recent"
	FreshnessAging   Freshness = "aging"
	FreshnessStale   Freshness = "stale"
	FreshnessExpired Freshness = "expired"
)

var freshnessMultiplier = map[Freshness]float64{
	FreshnessFresh:   1.0,
	FreshnessRecent:  0.95,
	FreshnessAging:   0.8,
	FreshnessStale:   0.6,
	FreshnessExpired: 0.3,
}

// Item is one stored fact. ExpiresAt is the zero time when the item
// never expires.
type Item struct {
	ID           string
	Content      string
	Category     Category
	Source       string
	Tags         []string
	Confidence   float64
	AccessCount  int
	LastAccessed time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func newItem(content string, category Category, now time.Time) *Item {
	return &Item{
		ID:         uuid.New().String(),
		Content:    content,
		Category:   category,
		Confidence: 0.8,
		CreatedAt:  now,
	}
}

func (it *Item) AgeDays(now time.Time) float64 {
	return now.Sub(it.CreatedAt).Hours() / 24
}

func (it *Item) Freshness(now time.Time) Freshness {
	days := it.AgeDays(now)
	switch {
	case days < 1:
		return FreshnessFresh
	case days < 7:
		return FreshnessRecent
	case days < 30:
		return FreshnessAging
	case days < 90:
		return FreshnessStale
	}
	return FreshnessExpired
}

func (it *Item) IsExpired(now time.Time) bool {
	return !it.ExpiresAt.IsZero() && now.After(it.ExpiresAt)
}

// RelevanceScore combines confidence with the current freshness bucket
// plus a small boost for frequently accessed items. Recomputed on
// every read, never cached.
func (it *Item) RelevanceScore(now time.Time) float64 {
	base := it.Confidence * freshnessMultiplier[it.Freshness(now)]
	accessBoost := math.Min(0.1, float64(it.AccessCount)*0.005)
	return math.Min(1.0, base+accessBoost)
}
