package confidence

import (
	"math"
	"sync"
)

type prediction struct {
	Predicted float64
	Correct   bool
}

type CalibratorStats struct {
	TotalPredictions int
	Accuracy         float64
	Overconfident    bool
	Underconfident   bool
}

// Calibrator adjusts raw estimates against observed outcomes, bucketed
// by confidence band so a miscalibrated high band does not drag down
// well-calibrated low bands. Adjustment factors are clamped to
// [0.5, 1.5].
type Calibrator struct {
	mu          sync.Mutex
	predictions []prediction
	bands       [10][]prediction
	maxHistory  int
}

func NewCalibrator() *Calibrator {
	return &Calibrator{maxHistory: 500}
}

func bandIndex(value float64) int {
	idx := int(value * 10)
	if idx > 9 {
		idx = 9
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func (c *Calibrator) Record(predicted float64, wasCorrect bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := prediction{Predicted: predicted, Correct: wasCorrect}
	c.predictions = append(c.predictions, p)
	if len(c.predictions) > c.maxHistory {
		c.predictions = c.predictions[len(c.predictions)-c.maxHistory/2:]
		c.rebuildBands()
	} else {
		idx := bandIndex(predicted)
		c.bands[idx] = append(c.bands[idx], p)
	}
}

func (c *Calibrator) rebuildBands() {
	for i := range c.bands {
		c.bands[i] = nil
	}
	for _, p := range c.predictions {
		idx := bandIndex(p.Predicted)
		c.bands[idx] = append(c.bands[idx], p)
	}
}

// Calibrate returns the adjusted confidence. Values in a band with no
// recorded history pass through unchanged.
func (c *Calibrator) Calibrate(raw float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	factor := c.bandFactor(bandIndex(raw))
	return math.Max(0, math.Min(1, raw*factor))
}

func (c *Calibrator) bandFactor(idx int) float64 {
	band := c.bands[idx]
	if len(band) == 0 {
		return 1
	}
	var predictedSum float64
	var correct int
	for _, p := range band {
		predictedSum += p.Predicted
		if p.Correct {
			correct++
		}
	}
	predictedAvg := predictedSum / float64(len(band))
	if predictedAvg == 0 {
		return 1
	}
	actual := float64(correct) / float64(len(band))
	return math.Max(0.5, math.Min(1.5, actual/predictedAvg))
}

// IsOverconfident reports whether high-band predictions come true less
// often than the prediction implies.
func (c *Calibrator) IsOverconfident() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for idx := 7; idx < 10; idx++ {
		if len(c.bands[idx]) >= 5 && c.bandFactor(idx) < 0.9 {
			return true
		}
	}
	return false
}

func (c *Calibrator) IsUnderconfident() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for idx := 0; idx < 4; idx++ {
		if len(c.bands[idx]) >= 5 && c.bandFactor(idx) > 1.1 {
			return true
		}
	}
	return false
}

func (c *Calibrator) Stats() CalibratorStats {
	over := c.IsOverconfident()
	under := c.IsUnderconfident()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CalibratorStats{
		TotalPredictions: len(c.predictions),
		Overconfident:    over,
		Underconfident:   under,
	}
	if len(c.predictions) > 0 {
		var correct int
		for _, p := range c.predictions {
			if p.Correct {
				correct++
			}
		}
		stats.Accuracy = float64(correct) / float64(len(c.predictions))
	}
	return stats
}
