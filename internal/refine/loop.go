package refine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/pkg/logger"
)

// Step records one refinement iteration.
type Step struct {
	Iteration        int
	Query            string
	GapsFound        []Gap
	ConfidenceBefore float64
	Timestamp        time.Time
}

// Loop drives the bounded iterate-until-confident cycle. It stops on
// the iteration cap, on reaching the confidence target, or when no
// gaps remain.
type Loop struct {
	mu               sync.Mutex
	maxIterations    int
	targetConfidence float64
	analyzer         *GapAnalyzer
	expander         *Expander
	history          []Step
}

func NewLoop(maxIterations int, targetConfidence float64) *Loop {
	if maxIterations <= 0 {
		maxIterations = 3
	}
	if targetConfidence <= 0 {
		targetConfidence = 0.8
	}
	return &Loop{
		maxIterations:    maxIterations,
		targetConfidence: targetConfidence,
		analyzer:         NewGapAnalyzer(),
		expander:         NewExpander(),
	}
}

func (l *Loop) MaxIterations() int {
	return l.maxIterations
}

func (l *Loop) TargetConfidence() float64 {
	return l.targetConfidence
}

func (l *Loop) ShouldContinue(iteration int, confidence float64, gaps []Gap) bool {
	if iteration >= l.maxIterations {
		return false
	}
	if confidence >= l.targetConfidence {
		return false
	}
	return len(gaps) > 0
}

// RefineQuery runs gap analysis and query expansion for one iteration
// and appends the step to history.
func (l *Loop) RefineQuery(originalQuery, currentAnswer string, confidence float64, iteration, sourceCount int, context string) Step {
	gaps := l.analyzer.Analyze(originalQuery, currentAnswer, sourceCount, confidence)

	step := Step{
		Iteration:        iteration,
		Query:            originalQuery,
		GapsFound:        gaps,
		ConfidenceBefore: confidence,
		Timestamp:        time.Now(),
	}

	if len(gaps) > 0 {
		refined := gaps[0].SuggestedQuery
		if refined == "" {
			refined = originalQuery
		}
		if eq := l.expander.Expand(refined, StrategyContextual, context); eq.Expanded != refined {
			refined = eq.Expanded
		}
		step.Query = refined

		logger.Debug("query refined",
			zap.Int("iteration", iteration),
			zap.String("top_gap", string(gaps[0].Type)),
			zap.String("query", refined),
		)
	}

	l.mu.Lock()
	l.history = append(l.history, step)
	l.mu.Unlock()
	return step
}

func (l *Loop) History() []Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	steps := make([]Step, len(l.history))
	copy(steps, l.history)
	return steps
}

func (l *Loop) ClearHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
}

type LoopStats struct {
	Steps            int
	MaxIterations    int
	TargetConfidence float64
}

func (l *Loop) Stats() LoopStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoopStats{
		Steps:            len(l.history),
		MaxIterations:    l.maxIterations,
		TargetConfidence: l.targetConfidence,
	}
}
