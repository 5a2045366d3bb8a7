package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveProfile(3 * time.Millisecond)
	m.ObserveProfile(time.Millisecond)
	m.ObserveAction("Correlation", time.Millisecond)
	m.DropAction("Temporal", "empty")
	m.DropAction("Temporal", "empty")
	m.Recommendation("Correlation")
	m.Invalidation()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.profileRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.actionsDropped.WithLabelValues("Temporal", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("Correlation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.actionDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProfile(time.Second)
		m.ObserveAction("x", time.Second)
		m.DropAction("x", "timeout")
		m.Recommendation("x")
		m.Invalidation()
	})
}
