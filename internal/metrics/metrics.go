package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "visloom"

// Metrics instruments profiling and recommendation dispatch.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	profileRuns     prometheus.Counter
	profileDuration prometheus.Histogram
	actionDuration  *prometheus.HistogramVec
	actionsDropped  *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	invalidations   prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		profileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "runs_total",
			Help:      "Total dataset profiling runs",
		}),
		profileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "duration_seconds",
			Help:      "Dataset profiling duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "action_duration_seconds",
			Help:      "Action strategy duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"action"}),
		actionsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "actions_dropped_total",
			Help:      "Action results dropped by action and reason",
		}, []string{"action", "reason"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "recommendations_total",
			Help:      "Non-empty recommendations produced by action",
		}, []string{"action"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "invalidations_total",
			Help:      "Cache invalidations caused by dataset mutations",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.profileRuns, m.profileDuration, m.actionDuration, m.actionsDropped, m.recommendations, m.invalidations)
	}
	return m
}

func (m *Metrics) ObserveProfile(d time.Duration) {
	if m == nil {
		return
	}
	m.profileRuns.Inc()
	m.profileDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveAction(action string, d time.Duration) {
	if m == nil {
		return
	}
	m.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// DropAction records an action whose result was discarded (reason: empty, timeout, error).
func (m *Metrics) DropAction(action, reason string) {
	if m == nil {
		return
	}
	m.actionsDropped.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) Recommendation(action string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(action).Inc()
}

func (m *Metrics) Invalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}
