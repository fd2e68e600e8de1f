// Package metrics exports Prometheus counters for query routing and
// LLM usage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus instruments. A nil Collector is a
// no-op so callers never need to guard.
type Collector struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

// NewCollector registers the instruments on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adspilot",
			Name:      "queries_total",
			Help:      "Queries processed, by routing outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adspilot",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency, by routing outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"outcome"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adspilot",
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed, by kind.",
		}, []string{"kind"}),
	}
}

// ObserveQuery records one finished query.
func (c *Collector) ObserveQuery(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// AddTokens records LLM token usage.
func (c *Collector) AddTokens(prompt, completion int) {
	if c == nil {
		return
	}
	c.tokens.WithLabelValues("prompt").Add(float64(prompt))
	c.tokens.WithLabelValues("completion").Add(float64(completion))
}
