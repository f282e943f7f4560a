package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPruneExpired(t *testing.T) {
	s := NewStore(10, nil)
	current := time.Now()
	s.now = func() time.Time { return current }
	p := NewPruner(s, 0.3)

	s.Add("expiring", CategoryAnswer, AddOptions{ExpiryHours: 0.001})
	s.Add("keeper", CategoryFact, AddOptions{})

	current = current.Add(time.Minute)
	assert.Equal(t, 1, p.PruneExpired())
	assert.Equal(t, 1, s.Size())
}

func TestPruneLowConfidence(t *testing.T) {
	s := NewStore(10, nil)
	p := NewPruner(s, 0.5)

	s.Add("weak", CategoryFact, AddOptions{Confidence: 0.2})
	s.Add("strong", CategoryFact, AddOptions{Confidence: 0.9})

	assert.Equal(t, 1, p.PruneLowConfidence(0))
	assert.Equal(t, 0, p.PruneLowConfidence(0))
	assert.Equal(t, 1, s.Size())
}

func TestPruneLowConfidenceExplicitThreshold(t *testing.T) {
	s := NewStore(10, nil)
	p := NewPruner(s, 0.3)

	s.Add("mid", CategoryFact, AddOptions{Confidence: 0.5})
	s.Add("strong", CategoryFact, AddOptions{Confidence: 0.9})

	// Zero falls back to the configured 0.3 default; an explicit bar
	// sweeps harder.
	assert.Equal(t, 0, p.PruneLowConfidence(0))
	assert.Equal(t, 1, p.PruneLowConfidence(0.6))
	assert.Equal(t, 1, s.Size())
}

func TestPruneStaleKeepsPopularItems(t *testing.T) {
	s := NewStore(10, nil)
	past := time.Now().AddDate(0, 0, -120)
	s.now = func() time.Time { return past }
	p := NewPruner(s, 0.3)

	forgotten := s.Add("old and unread", CategoryFact, AddOptions{})
	popular := s.Add("old but read often", CategoryFact, AddOptions{})
	popular.AccessCount = 5

	assert.Equal(t, 1, p.PruneStale())
	_, ok := s.Get(forgotten.ID)
	assert.False(t, ok)
	_, ok = s.Get(popular.ID)
	assert.True(t, ok)
}

func TestPruneAllEmptyStore(t *testing.T) {
	p := NewPruner(NewStore(10, nil), 0.3)

	report := p.PruneAll()
	assert.Equal(t, 0, report.Total())
}

func TestPruneAllReport(t *testing.T) {
	s := NewStore(10, nil)
	current := time.Now()
	s.now = func() time.Time { return current }
	p := NewPruner(s, 0.5)

	s.Add("expired", CategoryAnswer, AddOptions{ExpiryHours: 0.001, Confidence: 0.9})
	s.Add("weak", CategoryFact, AddOptions{Confidence: 0.2})
	s.Add("healthy", CategoryFact, AddOptions{Confidence: 0.9})

	current = current.Add(time.Minute)
	report := p.PruneAll()
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, 1, report.LowConfidence)
	assert.Equal(t, 0, report.Stale)
	assert.Equal(t, 2, report.Total())
	assert.Equal(t, 1, s.Size())

	// A second sweep finds nothing.
	assert.Equal(t, 0, p.PruneAll().Total())
}
