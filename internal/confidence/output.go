package confidence

import (
	"fmt"
	"strings"
)

// TrackedOutput is an answer annotated with its confidence metadata.
type TrackedOutput struct {
	Content          string
	Confidence       Score
	Query            string
	SourcesCount     int
	SearchIterations int
	TotalTimeMS      float64
}

// FormatWithConfidence renders the answer with a trailing confidence
// footer for operational display.
func (o TrackedOutput) FormatWithConfidence() string {
	var b strings.Builder
	b.WriteString(o.Content)
	fmt.Fprintf(&b, "\n\nConfidence: %.0f%% (%s)", o.Confidence.Value*100, o.Confidence.Level)
	if len(o.Confidence.Uncertainties) > 0 {
		labels := make([]string, len(o.Confidence.Uncertainties))
		for i, u := range o.Confidence.Uncertainties {
			labels[i] = string(u)
		}
		fmt.Fprintf(&b, "\nUncertainties: %s", strings.Join(labels, ", "))
	}
	if o.SourcesCount > 0 {
		fmt.Fprintf(&b, "\nSources: %d", o.SourcesCount)
	}
	if o.SearchIterations > 1 {
		fmt.Fprintf(&b, "\nSearch iterations: %d", o.SearchIterations)
	}
	return b.String()
}

// Engine bundles the estimator with its calibration and tracking
// state. Each session owns one instance.
type Engine struct {
	Estimator   *Estimator
	Uncertainty *UncertaintyTracker
	AutoSearch  *AutoSearchTrigger
	Calibrator  *Calibrator
}

func NewEngine(weights Weights, autoSearchThreshold float64, maxIterations int) *Engine {
	return &Engine{
		Estimator:   NewEstimator(weights),
		Uncertainty: NewUncertaintyTracker(0),
		AutoSearch:  NewAutoSearchTrigger(autoSearchThreshold, maxIterations),
		Calibrator:  NewCalibrator(),
	}
}

// Estimate runs the raw estimate, applies calibration, and records the
// result for uncertainty statistics.
func (e *Engine) Estimate(text string, in Inputs) Score {
	score := e.Estimator.Estimate(text, in)

	calibrated := e.Calibrator.Calibrate(score.Value)
	if calibrated != score.Value {
		score.Value = calibrated
		score.Level = levelOf(calibrated)
	}

	e.Uncertainty.Track(score)
	return score
}

func (e *Engine) NeedsSearch(score Score) bool {
	return e.AutoSearch.ShouldSearch(score)
}

func (e *Engine) RecordFeedback(predicted float64, wasCorrect bool) {
	e.Calibrator.Record(predicted, wasCorrect)
}

func (e *Engine) WrapOutput(content string, score Score, query string, sources int) TrackedOutput {
	return TrackedOutput{
		Content:      content,
		Confidence:   score,
		Query:        query,
		SourcesCount: sources,
	}
}
