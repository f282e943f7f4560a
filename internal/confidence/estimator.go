package confidence

import (
	"math"
	"strings"

	"github.com/pds-agent/core/internal/metrics"
)

// Weights holds the factor weights for the multi-factor estimate.
// They are configuration, not constants, because the right balance is
// workload dependent.
type Weights struct {
	SourceCount      float64
	SourceAgreement  float64
	DataFreshness    float64
	QuerySpecificity float64
	EvidenceStrength float64
}

func DefaultWeights() Weights {
	return Weights{
		SourceCount:      0.20,
		SourceAgreement:  0.25,
		DataFreshness:    0.15,
		QuerySpecificity: 0.15,
		EvidenceStrength: 0.25,
	}
}

// Inputs carries the evidence signals for one estimate. Absent
// evidence is expressed as zero, which counts against the score.
type Inputs struct {
	SourceCount      int
	SourceAgreement  float64
	DataFreshness    float64
	QuerySpecificity float64
	EvidenceStrength float64
}

var hedgingWords = []string{
	"возможно", "вероятно", "может быть", "предположительно",
	"не уверен", "perhaps", "maybe", "probably", "might",
	"uncertain", "unclear", "не ясно", "трудно сказать",
	"ориентировочно", "приблизительно", "примерно",
}

var assertiveWords = []string{
	"точно", "однозначно", "определённо", "exactly",
	"definitely", "certainly", "подтверждено", "verified",
	"доказано", "proved",
}

type Estimator struct {
	weights Weights
}

func NewEstimator(weights Weights) *Estimator {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Estimator{weights: weights}
}

// Estimate combines the evidence factors into a weighted value, then
// applies a hedging-language multiplier from the answer text.
func (e *Estimator) Estimate(text string, in Inputs) Score {
	factors := map[string]float64{
		"source_agreement":  clamp01(in.SourceAgreement),
		"data_freshness":    clamp01(in.DataFreshness),
		"query_specificity": clamp01(in.QuerySpecificity),
		"evidence_strength": clamp01(in.EvidenceStrength),
	}
	if in.SourceCount > 0 {
		factors["source_count"] = math.Min(1, float64(in.SourceCount)/5)
	} else {
		factors["source_count"] = 0.1
	}

	weighted := factors["source_count"]*e.weights.SourceCount +
		factors["source_agreement"]*e.weights.SourceAgreement +
		factors["data_freshness"]*e.weights.DataFreshness +
		factors["query_specificity"]*e.weights.QuerySpecificity +
		factors["evidence_strength"]*e.weights.EvidenceStrength

	value := weighted * hedgingMultiplier(text)

	var uncertainties []Uncertainty
	if in.SourceCount == 0 {
		uncertainties = append(uncertainties, UncertaintyDataMissing)
	}
	if in.SourceAgreement < 0.5 {
		uncertainties = append(uncertainties, UncertaintyConflictingSources)
	}
	if in.DataFreshness < 0.3 {
		uncertainties = append(uncertainties, UncertaintyOutdatedInfo)
	}
	if in.QuerySpecificity < 0.3 {
		uncertainties = append(uncertainties, UncertaintyAmbiguousQuery)
	}
	if in.EvidenceStrength < 0.3 {
		uncertainties = append(uncertainties, UncertaintyInsufficient)
	}

	var reasons []string
	if factors["source_count"] < 0.4 {
		reasons = append(reasons, "few sources")
	}
	if factors["source_agreement"] < 0.5 {
		reasons = append(reasons, "sources disagree")
	}
	if factors["data_freshness"] < 0.5 {
		reasons = append(reasons, "data may be stale")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "sufficient evidence")
	}

	score := NewScore(value, factors, uncertainties, strings.Join(reasons, "; "))
	metrics.ConfidenceScore.Observe(score.Value)
	return score
}

// hedgingMultiplier penalizes qualifying language and slightly rewards
// assertive language, bounded to [0.5, 1.1]. Empty answers get a flat
// 0.9.
func hedgingMultiplier(text string) float64 {
	if text == "" {
		return 0.9
	}
	lower := strings.ToLower(text)

	var hedges, strong int
	for _, w := range hedgingWords {
		if strings.Contains(lower, w) {
			hedges++
		}
	}
	for _, w := range assertiveWords {
		if strings.Contains(lower, w) {
			strong++
		}
	}

	multiplier := 1.0 - float64(hedges)*0.05 + float64(strong)*0.03
	return math.Max(0.5, math.Min(1.1, multiplier))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
