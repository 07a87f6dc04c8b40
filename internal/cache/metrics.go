package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts clause cache traffic.
type Metrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Errors prometheus.Counter
}

// NewMetrics registers the cache counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausegen_clause_cache_hits_total",
			Help: "Clause set lookups answered from the cache",
		}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausegen_clause_cache_misses_total",
			Help: "Clause set lookups that ran lowering",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausegen_clause_cache_errors_total",
			Help: "Lowering failures seen by the cache",
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) fail() {
	if m != nil {
		m.Errors.Inc()
	}
}
