package confidence

import (
	"math"
	"sync"
)

// SearchPlan is the executable form of a score's suggested action.
type SearchPlan struct {
	Action       Action
	Iteration    int
	MaxSources   int
	Expansions   int
	PreferRecent bool
	VerifyMode   bool
	MinTrust     float64
}

// AutoSearchTrigger decides when a score is too weak to serve and
// turns its suggested action into a plan. The threshold is mutable at
// runtime.
type AutoSearchTrigger struct {
	mu            sync.Mutex
	threshold     float64
	maxIterations int
	fired         int
}

func NewAutoSearchTrigger(threshold float64, maxIterations int) *AutoSearchTrigger {
	if threshold <= 0 {
		threshold = 0.7
	}
	if maxIterations <= 0 {
		maxIterations = 3
	}
	return &AutoSearchTrigger{threshold: threshold, maxIterations: maxIterations}
}

func (t *AutoSearchTrigger) ShouldSearch(score Score) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return score.Value < t.threshold
}

func (t *AutoSearchTrigger) SearchPlan(score Score, iteration int) (SearchPlan, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if iteration >= t.maxIterations || score.Value >= t.threshold {
		return SearchPlan{}, false
	}
	t.fired++

	plan := SearchPlan{Action: score.SuggestedAction, Iteration: iteration + 1}
	switch score.SuggestedAction {
	case ActionFullResearch:
		plan.MaxSources = 5 + iteration*2
		plan.Expansions = 2 + iteration
	case ActionAddSources:
		plan.MaxSources = 3 + iteration
		plan.PreferRecent = true
	case ActionVerifyFacts:
		plan.VerifyMode = true
		plan.MinTrust = 0.7
	case ActionExpandQuery:
		plan.Expansions = 2 + iteration
	}
	return plan, true
}

func (t *AutoSearchTrigger) Threshold() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold
}

func (t *AutoSearchTrigger) SetThreshold(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = math.Max(0.1, math.Min(0.95, v))
}

func (t *AutoSearchTrigger) TriggersFired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
