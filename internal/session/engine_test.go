package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pds-agent/core/internal/knowledge"
	"github.com/pds-agent/core/pkg/config"
)

type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func confidentAnswer() string {
	return strings.Repeat("Выручка точно составила 10 миллионов по итогам года. ", 3)
}

func TestAskEmptyQuery(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: "x"})

	_, err := e.Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAskReturnsGeneratedAnswer(t *testing.T) {
	gen := &stubGenerator{answer: confidentAnswer()}
	e := NewEngine(nil, gen)
	e.Ingest("Выручка компании составила 10 миллионов", knowledge.CategoryFact,
		knowledge.AddOptions{Source: "report", Confidence: 0.9})
	e.Ingest("Выручка выросла на 12 процентов", knowledge.CategoryFact,
		knowledge.AddOptions{Source: "report", Confidence: 0.9})

	answer, err := e.Ask(context.Background(), "какая выручка компании")
	require.NoError(t, err)

	assert.Equal(t, confidentAnswer(), answer.Output.Content)
	assert.GreaterOrEqual(t, answer.Iterations, 1)
	assert.LessOrEqual(t, answer.Iterations, 3)
	assert.False(t, answer.CacheHit)
	assert.NotEmpty(t, gen.prompts)
	// Retrieved evidence rides along in the prompt.
	assert.Contains(t, gen.prompts[0], "Context:")
	assert.Contains(t, gen.prompts[0], "10 миллионов")
}

func TestAskCachesAnswer(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	first, err := e.Ask(context.Background(), "какая выручка компании")
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := e.Ask(context.Background(), "Какая  выручка компании")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Output.Content, second.Output.Content)
}

func TestAskStoresAnswerAsKnowledge(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	before := e.Store().Size()
	_, err := e.Ask(context.Background(), "какая выручка компании")
	require.NoError(t, err)

	assert.Equal(t, before+1, e.Store().Size())
	answers := e.Store().FindByCategory(knowledge.CategoryAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, "generation", answers[0].Source)
}

func TestAskGeneratorFailure(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{err: errors.New("model unavailable")})

	answer, err := e.Ask(context.Background(), "какая выручка компании")
	require.NoError(t, err)

	assert.Empty(t, answer.Output.Content)
	assert.True(t, answer.NeedsAdditionalSearch)
	assert.False(t, answer.CacheHit)
	// A failed generation is never cached.
	assert.Equal(t, 0, e.Cache().Len())
}

func TestAskRefinesLowConfidenceQueries(t *testing.T) {
	// A hedgy answer with no evidence keeps confidence low, so the
	// loop runs to the iteration cap with refined queries.
	gen := &stubGenerator{answer: "Возможно, трудно сказать, может быть вырастет постепенно."}
	e := NewEngine(nil, gen)

	answer, err := e.Ask(context.Background(), "сколько стоит доставка груза")
	require.NoError(t, err)

	assert.Equal(t, 3, answer.Iterations)
	require.Len(t, gen.prompts, 3)
	assert.NotEqual(t, gen.prompts[0], gen.prompts[1])
	assert.True(t, answer.NeedsAdditionalSearch)
}

func TestAskAutoSearchThresholdGatesRefinement(t *testing.T) {
	// With the trigger bar dropped to near zero even a hedged answer
	// clears it, so no further search rounds are launched.
	cfg := config.Default()
	cfg.Confidence.AutoSearchThreshold = 0.001
	gen := &stubGenerator{answer: "Возможно, трудно сказать, может быть вырастет постепенно."}
	e := NewEngine(cfg, gen)

	answer, err := e.Ask(context.Background(), "сколько стоит доставка груза")
	require.NoError(t, err)

	assert.Equal(t, 1, answer.Iterations)
	assert.Len(t, gen.prompts, 1)
}

func TestPruneRemovesMatcherEntries(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	for i := 0; i < 5; i++ {
		e.Ingest(fmt.Sprintf("сомнительный факт номер %d", i), knowledge.CategoryFact,
			knowledge.AddOptions{Confidence: 0.1})
	}
	require.Equal(t, 5, e.Store().Size())
	require.Equal(t, 5, e.items.Size())

	assert.Equal(t, 5, e.Pruner().PruneLowConfidence(0))
	assert.Equal(t, 0, e.Store().Size())
	// The lexical index drops pruned ids instead of accumulating them.
	assert.Equal(t, 0, e.items.Size())
}

func TestAskCancelledContextReturnsBestSoFar(t *testing.T) {
	gen := &stubGenerator{answer: "Возможно так"}
	e := NewEngine(nil, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answer, err := e.Ask(ctx, "сколько стоит доставка груза")
	require.NoError(t, err)

	assert.Equal(t, 1, answer.Iterations)
	assert.True(t, answer.NeedsAdditionalSearch)
	assert.Equal(t, "Возможно так", answer.Output.Content)
}

func TestIngestDocumentSearchable(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	chunks := e.IngestDocument("doc1", "Выручка компании составила 10 миллионов рублей.", "Отчет", nil)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, e.Documents().DocumentCount())

	entry, ok := e.Tracker().Get("doc1")
	require.True(t, ok)
	assert.Equal(t, "Отчет", entry.SourceName)
}

func TestIngestHTML(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	chunks, err := e.IngestHTML("page1",
		"<html><body><p>Выручка составила 10 миллионов.</p></body></html>", "Отчет", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)

	_, ok := e.Tracker().Get("page1")
	assert.True(t, ok)
}

func TestStatsAggregates(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})
	e.Ingest("факт о выручке компании", knowledge.CategoryFact, knowledge.AddOptions{})
	e.IngestDocument("doc1", "Текст отчета о продажах компании.", "Отчет", nil)

	_, err := e.Ask(context.Background(), "какая выручка компании")
	require.NoError(t, err)

	stats := e.Stats()
	assert.GreaterOrEqual(t, stats.Store.Total, 1)
	assert.Equal(t, 1, stats.Documents)
	assert.GreaterOrEqual(t, stats.Chunks, 1)
	assert.GreaterOrEqual(t, stats.Confidence.TotalTracked, 1)
	assert.GreaterOrEqual(t, stats.Refinement.Steps, 1)
}

func TestRecordFeedbackReachesCalibrator(t *testing.T) {
	e := NewEngine(nil, &stubGenerator{answer: confidentAnswer()})

	for i := 0; i < 10; i++ {
		e.RecordFeedback(0.9, false)
	}
	assert.True(t, e.Confidence().Calibrator.IsOverconfident())
}
