package confidence

import (
	"sync"
	"time"
)

type actionOutcome struct {
	Action    Action
	Success   bool
	Delta     float64
	Timestamp time.Time
}

type ActionEffectiveness struct {
	Count          int
	SuccessRate    float64
	AvgImprovement float64
}

type TrackerStats struct {
	TotalTracked      int
	AverageConfidence float64
	LowConfidenceRate float64
	Uncertainties     map[Uncertainty]int
	ActionOutcomes    int
}

// UncertaintyTracker accumulates scores and the outcomes of
// corrective actions for later reporting.
type UncertaintyTracker struct {
	mu         sync.Mutex
	history    []Score
	byType     map[Uncertainty]int
	maxHistory int
	outcomes   []actionOutcome
}

func NewUncertaintyTracker(maxHistory int) *UncertaintyTracker {
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	return &UncertaintyTracker{
		byType:     make(map[Uncertainty]int),
		maxHistory: maxHistory,
	}
}

func (t *UncertaintyTracker) Track(score Score) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, score)
	if len(t.history) > t.maxHistory {
		t.history = t.history[len(t.history)-t.maxHistory/2:]
	}
	for _, u := range score.Uncertainties {
		t.byType[u]++
	}
}

func (t *UncertaintyTracker) RecordOutcome(action Action, success bool, before, after float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outcomes = append(t.outcomes, actionOutcome{
		Action:    action,
		Success:   success,
		Delta:     after - before,
		Timestamp: time.Now(),
	})
}

func (t *UncertaintyTracker) AverageConfidence() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range t.history {
		sum += s.Value
	}
	return sum / float64(len(t.history))
}

// LowConfidenceRate is the fraction of tracked scores at low or
// very_low level.
func (t *UncertaintyTracker) LowConfidenceRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return 0
	}
	var low int
	for _, s := range t.history {
		if s.Level == LevelLow || s.Level == LevelVeryLow {
			low++
		}
	}
	return float64(low) / float64(len(t.history))
}

func (t *UncertaintyTracker) ActionEffectiveness() map[Action]ActionEffectiveness {
	t.mu.Lock()
	defer t.mu.Unlock()

	grouped := make(map[Action][]actionOutcome)
	for _, o := range t.outcomes {
		grouped[o.Action] = append(grouped[o.Action], o)
	}

	result := make(map[Action]ActionEffectiveness, len(grouped))
	for action, outcomes := range grouped {
		var successes int
		var deltaSum float64
		for _, o := range outcomes {
			if o.Success {
				successes++
			}
			deltaSum += o.Delta
		}
		result[action] = ActionEffectiveness{
			Count:          len(outcomes),
			SuccessRate:    float64(successes) / float64(len(outcomes)),
			AvgImprovement: deltaSum / float64(len(outcomes)),
		}
	}
	return result
}

func (t *UncertaintyTracker) Stats() TrackerStats {
	avg := t.AverageConfidence()
	lowRate := t.LowConfidenceRate()

	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[Uncertainty]int, len(t.byType))
	for u, n := range t.byType {
		byType[u] = n
	}
	return TrackerStats{
		TotalTracked:      len(t.history),
		AverageConfidence: avg,
		LowConfidenceRate: lowRate,
		Uncertainties:     byType,
		ActionOutcomes:    len(t.outcomes),
	}
}
