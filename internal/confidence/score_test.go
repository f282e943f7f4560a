package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		value float64
		want  Level
	}{
		{0.95, LevelVeryHigh},
		{0.91, LevelVeryHigh},
		{0.9, LevelHigh},
		{0.75, LevelHigh},
		{0.7, LevelMedium},
		{0.55, LevelMedium},
		{0.5, LevelLow},
		{0.35, LevelLow},
		{0.3, LevelVeryLow},
		{0.1, LevelVeryLow},
		{0, LevelVeryLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelOf(tt.value), "value %v", tt.value)
	}
}

func TestNeedsAdditionalSearchMatchesLevel(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.3, 0.45, 0.5, 0.55, 0.7, 0.8, 0.95} {
		s := NewScore(v, nil, nil, "")
		wantNeeds := s.Level == LevelLow || s.Level == LevelVeryLow
		assert.Equal(t, wantNeeds, s.NeedsAdditionalSearch(), "value %v level %s", v, s.Level)
	}
}

func TestNewScoreClamps(t *testing.T) {
	assert.Equal(t, 1.0, NewScore(1.4, nil, nil, "").Value)
	assert.Equal(t, 0.0, NewScore(-0.2, nil, nil, "").Value)
}

func TestSuggestedAction(t *testing.T) {
	tests := []struct {
		name          string
		value         float64
		uncertainties []Uncertainty
		want          Action
	}{
		{"high value", 0.8, []Uncertainty{UncertaintyDataMissing}, ActionNone},
		{"missing data", 0.5, []Uncertainty{UncertaintyDataMissing}, ActionFullResearch},
		{"conflicting", 0.5, []Uncertainty{UncertaintyConflictingSources}, ActionVerifyFacts},
		{"outdated", 0.5, []Uncertainty{UncertaintyOutdatedInfo}, ActionAddSources},
		{"very low", 0.2, nil, ActionFullResearch},
		{"default", 0.5, nil, ActionExpandQuery},
		{"missing beats conflicting", 0.5,
			[]Uncertainty{UncertaintyConflictingSources, UncertaintyDataMissing}, ActionFullResearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScore(tt.value, nil, tt.uncertainties, "")
			assert.Equal(t, tt.want, s.SuggestedAction)
		})
	}
}
