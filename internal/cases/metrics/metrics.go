package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cases module: workflow throughput
// and critical path durations.
type Metrics struct {
	CasesCreated        prometheus.Counter
	Transitions         *prometheus.CounterVec
	TransitionsRejected *prometheus.CounterVec
	GateFailures        prometheus.Counter
	TransitionDuration  prometheus.Histogram
	SnapshotCacheHits   prometheus.Counter
	SnapshotCacheMisses prometheus.Counter
}

// New creates a Metrics instance with all cases module metrics registered.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_cases_created_total",
			Help: "Total number of cases created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_case_transitions_total",
			Help: "Successful case transitions by action",
		}, []string{"action"}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_case_transitions_rejected_total",
			Help: "Rejected transition attempts by error code",
		}, []string{"code"}),
		GateFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_submittability_gate_failures_total",
			Help: "Submit attempts blocked by unmet document requirements",
		}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_case_transition_duration_seconds",
			Help:    "Duration of ApplyTransition operations (workflow critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SnapshotCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_case_snapshot_cache_hits_total",
			Help: "Case reads served from the snapshot cache",
		}),
		SnapshotCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_case_snapshot_cache_misses_total",
			Help: "Case reads that fell through to the store",
		}),
	}
}

// ObserveTransition records a successful transition and its duration.
func (m *Metrics) ObserveTransition(action string, start time.Time) {
	m.Transitions.WithLabelValues(action).Inc()
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

// IncrementRejected records a rejected transition attempt.
func (m *Metrics) IncrementRejected(code string) {
	m.TransitionsRejected.WithLabelValues(code).Inc()
}
