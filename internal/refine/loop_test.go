package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldContinue(t *testing.T) {
	l := NewLoop(3, 0.8)
	gap := []Gap{{Type: GapNoSource}}

	assert.True(t, l.ShouldContinue(1, 0.5, gap))

	// Each stop condition on its own.
	assert.False(t, l.ShouldContinue(3, 0.5, gap), "iteration cap")
	assert.False(t, l.ShouldContinue(1, 0.8, gap), "confidence target")
	assert.False(t, l.ShouldContinue(1, 0.5, nil), "no gaps")
}

func TestLoopDefaults(t *testing.T) {
	l := NewLoop(0, 0)
	assert.Equal(t, 3, l.MaxIterations())
	assert.Equal(t, 0.8, l.TargetConfidence())
}

func TestRefineQueryPicksTopGap(t *testing.T) {
	l := NewLoop(3, 0.8)

	// Empty answer forces the missing_data gap, whose suggested query
	// is the original.
	step := l.RefineQuery("сколько стоит товар", "", 0.1, 0, 0, "")

	require.Len(t, step.GapsFound, 1)
	assert.Equal(t, GapMissingData, step.GapsFound[0].Type)
	assert.Equal(t, "сколько стоит товар", step.Query)
	assert.Equal(t, 0.1, step.ConfidenceBefore)
}

func TestRefineQueryAppliesContextualExpansion(t *testing.T) {
	l := NewLoop(3, 0.8)

	step := l.RefineQuery("сколько стоит товар", "", 0.1, 0, 0, "закупки в китай")
	assert.Contains(t, step.Query, "сколько стоит товар")
	assert.NotEqual(t, "сколько стоит товар", step.Query)
}

func TestRefineQueryNoGaps(t *testing.T) {
	l := NewLoop(3, 0.8)
	answer := "Выручка составила 10 миллионов по итогам года, рост на 12 процентов к прошлому периоду."

	step := l.RefineQuery("выручка", answer, 0.9, 1, 3, "")
	assert.Empty(t, step.GapsFound)
	assert.Equal(t, "выручка", step.Query)
}

func TestLoopHistory(t *testing.T) {
	l := NewLoop(3, 0.8)
	l.RefineQuery("вопрос один про товар", "", 0.1, 0, 0, "")
	l.RefineQuery("вопрос два про товар", "", 0.2, 1, 0, "")

	history := l.History()
	require.Len(t, history, 2)
	assert.Equal(t, 0, history[0].Iteration)
	assert.Equal(t, 1, history[1].Iteration)
	assert.False(t, history[0].Timestamp.IsZero())

	// History returns a copy.
	history[0].Query = "mutated"
	assert.NotEqual(t, "mutated", l.History()[0].Query)

	l.ClearHistory()
	assert.Empty(t, l.History())
}
