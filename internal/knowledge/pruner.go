package knowledge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/internal/metrics"
	"github.com/pds-agent/core/pkg/logger"
)

type PruneReport struct {
	Expired       int
	Stale         int
	LowConfidence int
}

func (r PruneReport) Total() int {
	return r.Expired + r.Stale + r.LowConfidence
}

// Pruner garbage-collects the store on demand or on a timer. Every
// sweep is idempotent and safe against an empty store.
type Pruner struct {
	store         *Store
	minConfidence float64
	maxAgeDays    float64
}

func NewPruner(store *Store, minConfidence float64) *Pruner {
	if minConfidence <= 0 {
		minConfidence = 0.3
	}
	return &Pruner{
		store:         store,
		minConfidence: minConfidence,
		maxAgeDays:    90,
	}
}

func (p *Pruner) PruneExpired() int {
	return p.store.CleanupExpired()
}

// PruneStale removes old items that were rarely read. Frequently
// accessed items survive regardless of age.
func (p *Pruner) PruneStale() int {
	cutoff := time.Now().Add(-time.Duration(p.maxAgeDays * 24 * float64(time.Hour)))
	removed := p.store.RemoveWhere(func(it *Item) bool {
		return it.CreatedAt.Before(cutoff) && it.AccessCount < 3
	})
	if removed > 0 {
		metrics.PrunedItems.WithLabelValues("stale").Add(float64(removed))
	}
	return removed
}

// PruneLowConfidence removes items below min. A zero or negative min
// falls back to the configured default.
func (p *Pruner) PruneLowConfidence(min float64) int {
	if min <= 0 {
		min = p.minConfidence
	}
	removed := p.store.RemoveWhere(func(it *Item) bool {
		return it.Confidence < min
	})
	if removed > 0 {
		metrics.PrunedItems.WithLabelValues("low_confidence").Add(float64(removed))
	}
	return removed
}

func (p *Pruner) PruneAll() PruneReport {
	report := PruneReport{
		Expired:       p.PruneExpired(),
		Stale:         p.PruneStale(),
		LowConfidence: p.PruneLowConfidence(0),
	}
	if report.Expired > 0 {
		metrics.PrunedItems.WithLabelValues("expired").Add(float64(report.Expired))
	}
	if report.Total() > 0 {
		logger.Info("prune sweep finished",
			zap.Int("expired", report.Expired),
			zap.Int("stale", report.Stale),
			zap.Int("low_confidence", report.LowConfidence),
		)
	}
	return report
}

// Run sweeps every interval until the context is cancelled.
func (p *Pruner) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneAll()
		}
	}
}
