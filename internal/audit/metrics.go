package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the guard's operational counters.
type Metrics struct {
	// Latency of complete guarded calls, including the operation body.
	CallDuration *prometheus.HistogramVec

	// Committed guarded calls.
	Commits *prometheus.CounterVec

	// Rollbacks by reason: operation, audit, commit.
	Rollbacks *prometheus.CounterVec

	// Connection acquisition failures.
	AcquireFailures prometheus.Counter

	// Bootstrap inserts that bypass the transactional path.
	DirectInserts prometheus.Counter
}

// NewMetrics registers the guard metrics on reg. A nil registerer gets a
// private registry so tests and embedded uses need no wiring.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		CallDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditgate_guard_call_duration_seconds",
			Help:    "Histogram of guarded call latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"action", "resource_type", "outcome"}),

		Commits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auditgate_guard_commits_total",
			Help: "Total number of committed guarded calls.",
		}, []string{"action", "resource_type"}),

		Rollbacks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auditgate_guard_rollbacks_total",
			Help: "Total number of rolled back guarded calls by reason.",
		}, []string{"reason"}),

		AcquireFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "auditgate_guard_acquire_failures_total",
			Help: "Total number of connection acquisition failures.",
		}),

		DirectInserts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "auditgate_guard_direct_inserts_total",
			Help: "Total number of non-transactional bootstrap audit inserts.",
		}),
	}
}
