package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	KnowledgeItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pds_knowledge_items",
		Help: "Current number of items in the knowledge store",
	})

	KnowledgeEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pds_knowledge_evictions_total",
		Help: "Items evicted from the knowledge store because of the cap",
	})

	KnowledgeExpirations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pds_knowledge_expirations_total",
		Help: "Items removed by expiry cleanup",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pds_cache_hits_total",
		Help: "Semantic cache lookups that returned a stored answer",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pds_cache_misses_total",
		Help: "Semantic cache lookups that found nothing",
	})

	ConfidenceScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pds_confidence_score",
		Help:    "Distribution of confidence scores for produced answers",
		Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
	})

	RefinementIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pds_refinement_iterations",
		Help:    "Refinement iterations used per query",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})

	GenerateFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pds_generate_failures_total",
		Help: "Model generation calls that failed or timed out",
	})

	PrunedItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pds_pruned_items_total",
		Help: "Items removed by the pruner, by reason",
	}, []string{"reason"})
)

func Init() {
	prometheus.MustRegister(
		KnowledgeItems,
		KnowledgeEvictions,
		KnowledgeExpirations,
		CacheHits,
		CacheMisses,
		ConfidenceScore,
		RefinementIterations,
		GenerateFailures,
		PrunedItems,
	)
}

// Serve exposes /metrics on addr. It blocks, so callers run it in a
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
