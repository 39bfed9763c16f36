package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Merge(nil, 3)
	m.Merge(errors.New("boom"), 0)
	m.Sweep(nil, 5)
	m.ExpiredRead()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.merges.WithLabelValues(ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.merges.WithLabelValues(ResultFailed)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.mergedItems))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.sweptCarts))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.expiredReads))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Merge(nil, 1)
		m.Sweep(nil, 1)
		m.ExpiredRead()
	})
}
