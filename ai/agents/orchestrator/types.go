// Package orchestrator ties the routing stages together: it classifies
// a question, dispatches it to the direct path or to one or more
// specialists, merges multi-specialist answers, and accounts per-outcome
// metrics.
package orchestrator

import (
	"sync"
	"time"
)

// Outcome names where a query ended up. It is the key of the
// per-outcome metrics.
const (
	OutcomeDirect          = "direct"
	OutcomeConfiguration   = "configuration"
	OutcomePerformance     = "performance"
	OutcomeRecommendation  = "recommendation"
	OutcomeMultiSpecialist = "multi_specialist"
	OutcomeError           = "error"
)

// QueryResult is the orchestrator's answer to one question.
type QueryResult struct {
	Answer   string         `json:"answer"`
	Outcome  string         `json:"outcome"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// OutcomeStats aggregates the queries that ended in one outcome.
type OutcomeStats struct {
	Count     int64   `json:"count"`
	TotalTime float64 `json:"total_time"`
	AvgTime   float64 `json:"avg_time"`
}

// outcomeMetrics is the in-process per-outcome accounting, exposed over
// the API next to the Prometheus export.
type outcomeMetrics struct {
	mu    sync.Mutex
	stats map[string]*OutcomeStats
}

func newOutcomeMetrics() *outcomeMetrics {
	return &outcomeMetrics{stats: make(map[string]*OutcomeStats)}
}

func (m *outcomeMetrics) record(outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[outcome]
	if !ok {
		s = &OutcomeStats{}
		m.stats[outcome] = s
	}
	s.Count++
	s.TotalTime += duration.Seconds()
	s.AvgTime = s.TotalTime / float64(s.Count)
}

func (m *outcomeMetrics) snapshot() map[string]OutcomeStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]OutcomeStats, len(m.stats))
	for outcome, s := range m.stats {
		out[outcome] = *s
	}
	return out
}
