package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/internal/cache"
	"github.com/pds-agent/core/internal/confidence"
	"github.com/pds-agent/core/internal/knowledge"
	"github.com/pds-agent/core/internal/llm"
	"github.com/pds-agent/core/internal/metrics"
	"github.com/pds-agent/core/internal/refine"
	"github.com/pds-agent/core/internal/relevance"
	"github.com/pds-agent/core/internal/temporal"
	"github.com/pds-agent/core/pkg/config"
	"github.com/pds-agent/core/pkg/logger"
)

// Answer is the session-level result for one query.
type Answer struct {
	Output                confidence.TrackedOutput
	Score                 confidence.Score
	Iterations            int
	NeedsAdditionalSearch bool
	CacheHit              bool
}

// Engine owns one session's working memory. Components are explicit
// instances so independent sessions and tests never share state.
type Engine struct {
	generator  llm.Generator
	store      *knowledge.Store
	docs       *knowledge.DocumentIndex
	items      knowledge.Matcher
	cache      *cache.Cache
	tracker    *relevance.Tracker
	confidence *confidence.Engine
	loop       *refine.Loop
	optimizer  *refine.Optimizer
	scorer     *temporal.Scorer
	pruner     *knowledge.Pruner

	pruneInterval time.Duration
}

func NewEngine(cfg *config.Config, generator llm.Generator) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	decay := &temporal.Decay{
		HalfLifeDays: cfg.Decay.HalfLifeDays,
		MaxAgeDays:   cfg.Decay.MaxAgeDays,
		Alpha:        cfg.Decay.Alpha,
	}
	store := knowledge.NewStore(cfg.Knowledge.MaxItems, cfg.Knowledge.ExpiryHours)
	items := knowledge.NewLexicalMatcher()
	// Matcher entries die with their store items, otherwise the index
	// outgrows the store cap in a long-lived session.
	store.SetOnRemove(func(id string) { items.Remove(id) })
	weights := confidence.Weights{
		SourceCount:      cfg.Confidence.WeightSourceCount,
		SourceAgreement:  cfg.Confidence.WeightAgreement,
		DataFreshness:    cfg.Confidence.WeightFreshness,
		QuerySpecificity: cfg.Confidence.WeightSpecificity,
		EvidenceStrength: cfg.Confidence.WeightEvidence,
	}

	return &Engine{
		generator: generator,
		store:     store,
		docs: knowledge.NewDocumentIndex(
			knowledge.NewLexicalMatcher(),
			cfg.Knowledge.ChunkSize,
			cfg.Knowledge.ChunkOverlap,
		),
		items:   items,
		cache:   cache.New(cfg.Cache.MaxEntries),
		tracker: relevance.NewTracker(cfg.Relevance.MaxEntries, cfg.Relevance.StaleThreshold, decay),
		confidence: confidence.NewEngine(
			weights,
			cfg.Confidence.AutoSearchThreshold,
			cfg.Refinement.MaxIterations,
		),
		loop:          refine.NewLoop(cfg.Refinement.MaxIterations, cfg.Refinement.TargetConfidence),
		optimizer:     refine.NewOptimizer(),
		scorer:        temporal.NewScorer(nil, decay),
		pruner:        knowledge.NewPruner(store, cfg.Pruner.MinConfidence),
		pruneInterval: time.Duration(cfg.Pruner.IntervalMinutes) * time.Minute,
	}
}

// Ingest stores a fact and indexes it for lexical retrieval.
func (e *Engine) Ingest(content string, category knowledge.Category, opts knowledge.AddOptions) *knowledge.Item {
	item := e.store.Add(content, category, opts)
	e.items.Index(item.ID, content, item.Tags)
	if opts.Source != "" {
		e.tracker.Track(opts.Source, opts.Source, item.Confidence, item.Tags)
	}
	return item
}

func (e *Engine) IngestDocument(docID, text, title string, tags []string) int {
	chunks := e.docs.AddDocument(docID, text, title, tags)
	e.tracker.Track(docID, title, 0.5, tags)
	return chunks
}

func (e *Engine) IngestHTML(docID, html, title string, tags []string) (int, error) {
	chunks, err := e.docs.AddHTMLDocument(docID, html, title, tags)
	if err != nil {
		return 0, err
	}
	e.tracker.Track(docID, title, 0.5, tags)
	return chunks, nil
}

// Ask runs the full answer-score-refine loop for a query. Cancellation
// between iterations returns the best answer so far rather than
// discarding partial progress.
func (e *Engine) Ask(ctx context.Context, query string) (Answer, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, fmt.Errorf("empty query")
	}

	optimized := e.optimizer.Optimize(query)

	if hit, ok := e.cache.Get(optimized); ok {
		score := e.confidence.Estimate(hit.Response, confidence.Inputs{
			SourceCount:      1,
			SourceAgreement:  1,
			DataFreshness:    e.scorer.ScoreText(hit.Response).Score,
			QuerySpecificity: querySpecificity(optimized),
			EvidenceStrength: 0.8,
		})
		return Answer{
			Output:                e.confidence.WrapOutput(hit.Response, score, query, 1),
			Score:                 score,
			NeedsAdditionalSearch: score.NeedsAdditionalSearch(),
			CacheHit:              true,
		}, nil
	}

	var (
		bestAnswer  string
		bestScore   confidence.Score
		bestSources int
		cancelled   bool
		iteration   int
	)
	currentQuery := optimized
	maxSources := 3

	for {
		answerText, evidence := e.generateWithEvidence(ctx, currentQuery, maxSources)
		score := e.scoreAnswer(currentQuery, answerText, evidence)

		if score.Value >= bestScore.Value || bestAnswer == "" {
			bestAnswer = answerText
			bestScore = score
			bestSources = len(evidence)
		}

		gaps := e.loop.RefineQuery(currentQuery, answerText, score.Value, iteration, len(evidence), "").GapsFound

		// The trigger decides whether another search is warranted at
		// all; the loop bounds how far refinement may go.
		plan, search := e.confidence.AutoSearch.SearchPlan(score, iteration)
		iteration++

		if !search || !e.loop.ShouldContinue(iteration, score.Value, gaps) {
			break
		}
		if ctx.Err() != nil {
			cancelled = true
			logger.Warn("answer loop cancelled",
				zap.String("query", query),
				zap.Int("iteration", iteration),
			)
			break
		}

		if plan.MaxSources > 0 {
			maxSources = plan.MaxSources
		}
		steps := e.loop.History()
		currentQuery = steps[len(steps)-1].Query
	}

	metrics.RefinementIterations.Observe(float64(iteration))

	if bestAnswer != "" {
		e.cache.Put(optimized, bestAnswer)
		item := e.store.Add(bestAnswer, knowledge.CategoryAnswer, knowledge.AddOptions{
			Source:     "generation",
			Confidence: bestScore.Value,
		})
		e.items.Index(item.ID, bestAnswer, nil)
	}

	output := e.confidence.WrapOutput(bestAnswer, bestScore, query, bestSources)
	output.SearchIterations = iteration
	output.TotalTimeMS = float64(time.Since(start).Milliseconds())

	logger.Info("query answered",
		zap.String("query", query),
		zap.Float64("confidence", bestScore.Value),
		zap.String("level", string(bestScore.Level)),
		zap.Int("iterations", iteration),
		zap.Bool("cancelled", cancelled),
	)

	return Answer{
		Output:                output,
		Score:                 bestScore,
		Iterations:            iteration,
		NeedsAdditionalSearch: cancelled || bestScore.NeedsAdditionalSearch(),
	}, nil
}

type evidenceChunk struct {
	Source string
	Text   string
	Score  float64
}

// generateWithEvidence retrieves supporting chunks and calls the
// model. Generation failure or timeout degrades to an empty answer so
// the gap analyzer drives the same refinement path as missing data.
func (e *Engine) generateWithEvidence(ctx context.Context, query string, maxSources int) (string, []evidenceChunk) {
	var evidence []evidenceChunk
	for _, r := range e.docs.Search(query, maxSources) {
		evidence = append(evidence, evidenceChunk{Source: r.DocID, Text: r.Text, Score: r.Score})
		e.tracker.Track(r.DocID, r.Title, r.Score, nil)
	}
	for _, m := range e.items.Match(query, maxSources, 0.05) {
		if item, ok := e.store.Get(m.ID); ok {
			evidence = append(evidence, evidenceChunk{Source: item.Source, Text: item.Content, Score: m.Score})
		}
	}

	if e.generator == nil {
		return "", evidence
	}

	answer, err := e.generator.Generate(ctx, buildPrompt(query, evidence))
	if err != nil {
		metrics.GenerateFailures.Inc()
		logger.Warn("generation degraded to empty answer", zap.Error(err))
		return "", evidence
	}
	return answer, evidence
}

func (e *Engine) scoreAnswer(query, answer string, evidence []evidenceChunk) confidence.Score {
	var agreement, strength float64
	if len(evidence) > 0 {
		var sum float64
		for _, ev := range evidence {
			sum += ev.Score
			if ev.Score > strength {
				strength = ev.Score
			}
		}
		agreement = sum / float64(len(evidence))
	}

	freshness := 0.5
	if answer != "" {
		freshness = e.scorer.ScoreText(answer).Score
	}

	return e.confidence.Estimate(answer, confidence.Inputs{
		SourceCount:      len(evidence),
		SourceAgreement:  agreement,
		DataFreshness:    freshness,
		QuerySpecificity: querySpecificity(query),
		EvidenceStrength: strength,
	})
}

func buildPrompt(query string, evidence []evidenceChunk) string {
	if len(evidence) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString("Answer the question using the context below when relevant.\n\nContext:\n")
	for _, ev := range evidence {
		b.WriteString("- ")
		b.WriteString(ev.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// querySpecificity is a cheap proxy: more content-bearing terms means
// a narrower question.
func querySpecificity(query string) float64 {
	terms := len(refine.ExtractKeyTerms(query))
	switch {
	case terms >= 5:
		return 0.9
	case terms >= 3:
		return 0.7
	case terms >= 1:
		return 0.5
	}
	return 0.3
}

// StartPruner runs periodic garbage collection until ctx is cancelled.
func (e *Engine) StartPruner(ctx context.Context) {
	go e.pruner.Run(ctx, e.pruneInterval)
}

// Stats is an aggregate snapshot across all owned components.
type Stats struct {
	Store      knowledge.StoreStats
	Documents  int
	Chunks     int
	Cache      cache.Stats
	Relevance  relevance.Stats
	Confidence confidence.TrackerStats
	Calibrator confidence.CalibratorStats
	Refinement refine.LoopStats
}

func (e *Engine) Stats() Stats {
	return Stats{
		Store:      e.store.Stats(),
		Documents:  e.docs.DocumentCount(),
		Chunks:     e.docs.ChunkCount(),
		Cache:      e.cache.Stats(),
		Relevance:  e.tracker.Stats(),
		Confidence: e.confidence.Uncertainty.Stats(),
		Calibrator: e.confidence.Calibrator.Stats(),
		Refinement: e.loop.Stats(),
	}
}

func (e *Engine) Pruner() *knowledge.Pruner           { return e.pruner }
func (e *Engine) Store() *knowledge.Store             { return e.store }
func (e *Engine) Documents() *knowledge.DocumentIndex { return e.docs }
func (e *Engine) Cache() *cache.Cache                 { return e.cache }
func (e *Engine) Tracker() *relevance.Tracker         { return e.tracker }
func (e *Engine) Confidence() *confidence.Engine      { return e.confidence }
func (e *Engine) RecordFeedback(predicted float64, wasCorrect bool) {
	e.confidence.RecordFeedback(predicted, wasCorrect)
}
