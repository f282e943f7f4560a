package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrateEmptyBandUnchanged(t *testing.T) {
	c := NewCalibrator()

	assert.Equal(t, 0.85, c.Calibrate(0.85))

	// History in one band leaves the others alone.
	c.Record(0.25, true)
	assert.Equal(t, 0.85, c.Calibrate(0.85))
}

func TestCalibrateAdjustsDownOverconfidentBand(t *testing.T) {
	c := NewCalibrator()
	// Predictions around 0.85 that were right only half the time.
	for i := 0; i < 10; i++ {
		c.Record(0.85, i%2 == 0)
	}

	calibrated := c.Calibrate(0.85)
	assert.Less(t, calibrated, 0.85)
	// Factor is clamped below at 0.5.
	assert.GreaterOrEqual(t, calibrated, 0.85*0.5)
}

func TestCalibrateFactorClampedUp(t *testing.T) {
	c := NewCalibrator()
	// Low predictions that always came true push the factor to its
	// upper clamp of 1.5.
	for i := 0; i < 10; i++ {
		c.Record(0.2, true)
	}

	assert.InDelta(t, 0.3, c.Calibrate(0.2), 1e-9)
}

func TestIsOverconfident(t *testing.T) {
	c := NewCalibrator()
	assert.False(t, c.IsOverconfident())

	for i := 0; i < 10; i++ {
		c.Record(0.9, false)
	}
	assert.True(t, c.IsOverconfident())
	assert.False(t, c.IsUnderconfident())
}

func TestIsUnderconfident(t *testing.T) {
	c := NewCalibrator()

	for i := 0; i < 10; i++ {
		c.Record(0.2, true)
	}
	assert.True(t, c.IsUnderconfident())
	assert.False(t, c.IsOverconfident())
}

func TestFewRecordsNotFlagged(t *testing.T) {
	c := NewCalibrator()
	// Four records in the band stay under the five-record minimum.
	for i := 0; i < 4; i++ {
		c.Record(0.9, false)
	}
	assert.False(t, c.IsOverconfident())
}

func TestCalibratorStats(t *testing.T) {
	c := NewCalibrator()
	c.Record(0.8, true)
	c.Record(0.8, false)

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalPredictions)
	assert.InDelta(t, 0.5, stats.Accuracy, 1e-9)
}

func TestCalibratorHistoryBounded(t *testing.T) {
	c := NewCalibrator()
	for i := 0; i < 600; i++ {
		c.Record(0.5, true)
	}
	assert.LessOrEqual(t, c.Stats().TotalPredictions, 500)
}
