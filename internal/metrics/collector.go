package metrics

import (
	"kitchen-ai/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes generation activity to Prometheus.
type Collector struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	tokens      *prometheus.CounterVec
}

// NewCollector registers the generation metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_ai_generation_total",
				Help: "Generation steps by operation and outcome (ai or fallback)",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kitchen_ai_generation_duration_seconds",
				Help:    "Wall time of generation steps, fallback included",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"operation"},
		),
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_ai_llm_tokens_total",
				Help: "Tokens consumed by kind (prompt or completion)",
			},
			[]string{"operation", "kind"},
		),
	}
}

// Observe records one generation step.
func (c *Collector) Observe(meta shared.AgentMeta) {
	outcome := string(meta.Outcome)
	if outcome == "" {
		outcome = string(shared.OutcomeAI)
	}
	c.generations.WithLabelValues(meta.AgentName, outcome).Inc()
	c.duration.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	if meta.Usage.PromptTokens > 0 {
		c.tokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	}
	if meta.Usage.CompletionTokens > 0 {
		c.tokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	}
}

// Recorder fans generation metadata out to the SQLite store and Prometheus.
// Either side may be nil.
type Recorder struct {
	store     *Store
	collector *Collector
}

func NewRecorder(store *Store, collector *Collector) *Recorder {
	return &Recorder{store: store, collector: collector}
}

func (r *Recorder) RecordMeta(meta shared.AgentMeta) error {
	if r.collector != nil {
		r.collector.Observe(meta)
	}
	if r.store != nil {
		return r.store.RecordMeta(meta)
	}
	return nil
}
