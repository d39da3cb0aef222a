package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invocations counts finished workflow runs by category and outcome (ok|error).
	Invocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_invocations_total",
			Help: "Workflow invocations by request category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// SymbolResolutions counts how symbols were resolved (extracted|remembered|unresolved).
	SymbolResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_symbol_resolutions_total",
			Help: "Symbol resolution outcomes",
		},
		[]string{"source"},
	)

	// ExtractionFailures counts extractor errors that were recovered by fallback.
	ExtractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finagent_extraction_failures_total",
			Help: "Symbol extraction capability failures recovered by fallback",
		},
	)

	// Fetches counts data fetches by dataset and outcome (ok|not_found|error).
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_fetches_total",
			Help: "Financial data fetches by dataset and outcome",
		},
		[]string{"dataset", "outcome"},
	)

	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finagent_node_duration_seconds",
			Help:    "Time spent in each workflow node",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	// ModelTokens counts LLM tokens by model and kind (prompt|completion).
	ModelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_model_tokens_total",
			Help: "LLM tokens consumed",
		},
		[]string{"model", "kind"},
	)

	ModelCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_model_cost_usd_total",
			Help: "Estimated LLM cost in USD",
		},
		[]string{"model"},
	)
)
