package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry tracks orchestration metrics. Safe for concurrent use.
type Telemetry struct {
	runs          *prometheus.CounterVec
	parseRetries  prometheus.Counter
	searchErrors  prometheus.Counter
	clarification prometheus.Counter
	llmLatency    prometheus.Histogram
	searchLatency prometheus.Histogram
	resultsServed prometheus.Histogram
}

// NewTelemetry registers the orchestration metrics on the given registerer.
// Pass nil to use the default registry.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Telemetry{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "legichat_orchestration_runs_total",
			Help: "Orchestration runs by terminal outcome",
		}, []string{"outcome"}),
		parseRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "legichat_parse_retries_total",
			Help: "Re-prompts issued after malformed search actions",
		}),
		searchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "legichat_search_errors_total",
			Help: "Search backend failures absorbed into corrective prompts",
		}),
		clarification: factory.NewCounter(prometheus.CounterOpts{
			Name: "legichat_clarifications_total",
			Help: "Turns short-circuited by a clarification question",
		}),
		llmLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "legichat_llm_request_seconds",
			Help:    "Latency of chat-completions requests",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		searchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "legichat_search_request_seconds",
			Help:    "Latency of content-search requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		resultsServed: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "legichat_results_per_turn",
			Help:    "Accumulated result count returned per turn",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

func (t *Telemetry) RecordRun(outcome string) {
	if t == nil {
		return
	}
	t.runs.WithLabelValues(outcome).Inc()
}

func (t *Telemetry) RecordParseRetry() {
	if t == nil {
		return
	}
	t.parseRetries.Inc()
}

func (t *Telemetry) RecordSearchError() {
	if t == nil {
		return
	}
	t.searchErrors.Inc()
}

func (t *Telemetry) RecordClarification() {
	if t == nil {
		return
	}
	t.clarification.Inc()
}

func (t *Telemetry) ObserveLLMLatency(d time.Duration) {
	if t == nil {
		return
	}
	t.llmLatency.Observe(d.Seconds())
}

func (t *Telemetry) ObserveSearchLatency(d time.Duration) {
	if t == nil {
		return
	}
	t.searchLatency.Observe(d.Seconds())
}

func (t *Telemetry) ObserveResultCount(n int) {
	if t == nil {
		return
	}
	t.resultsServed.Observe(float64(n))
}
