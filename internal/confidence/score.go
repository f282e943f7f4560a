package confidence

import (
	"math"
	"time"
)

type Level string

const (
	LevelVeryHigh Level = "very_high"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very_low"
)

func levelOf(value float64) Level {
	switch {
	case value > 0.9:
		return LevelVeryHigh
	case value > 0.7:
		return LevelHigh
	case value > 0.5:
		return LevelMedium
	case value > 0.3:
		return LevelLow
	}
	return LevelVeryLow
}

type Uncertainty string

const (
	UncertaintyDataMissing        Uncertainty = "data_missing"
	UncertaintyConflictingSources Uncertainty = "conflicting"
	UncertaintyOutdatedInfo       Uncertainty = "outdated"
	UncertaintyAmbiguousQuery     Uncertainty = "ambiguous"
	UncertaintyInsufficient       Uncertainty = "insufficient"
)

type Action string

const (
	ActionNone         Action = "none"
	ActionExpandQuery  Action = "expand_query"
	ActionAddSources   Action = "add_sources"
	ActionVerifyFacts  Action = "verify_facts"
	ActionFullResearch Action = "full_research"
)

// Score is one trust estimate for a produced answer. Factors keep the
// named contributions for explainability.
type Score struct {
	Value           float64
	Level           Level
	Factors         map[string]float64
	Uncertainties   []Uncertainty
	SuggestedAction Action
	Explanation     string
	Timestamp       time.Time
}

// NewScore clamps the value and derives the level and suggested
// action.
func NewScore(value float64, factors map[string]float64, uncertainties []Uncertainty, explanation string) Score {
	value = math.Max(0, math.Min(1, value))
	s := Score{
		Value:         value,
		Level:         levelOf(value),
		Factors:       factors,
		Uncertainties: uncertainties,
		Explanation:   explanation,
		Timestamp:     time.Now(),
	}
	s.SuggestedAction = s.suggestAction()
	return s
}

func (s Score) suggestAction() Action {
	if s.Value > 0.7 {
		return ActionNone
	}
	if s.has(UncertaintyDataMissing) {
		return ActionFullResearch
	}
	if s.has(UncertaintyConflictingSources) {
		return ActionVerifyFacts
	}
	if s.has(UncertaintyOutdatedInfo) {
		return ActionAddSources
	}
	if s.Value < 0.3 {
		return ActionFullResearch
	}
	return ActionExpandQuery
}

func (s Score) has(u Uncertainty) bool {
	for _, got := range s.Uncertainties {
		if got == u {
			return true
		}
	}
	return false
}

// NeedsAdditionalSearch holds exactly when the level is low or
// very_low.
func (s Score) NeedsAdditionalSearch() bool {
	return s.Level == LevelLow || s.Level == LevelVeryLow
}
