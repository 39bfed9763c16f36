package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopcart"

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Metrics holds the cart counters. A nil *Metrics records nothing.
type Metrics struct {
	merges       *prometheus.CounterVec
	mergedItems  prometheus.Counter
	sweeps       *prometheus.CounterVec
	sweptCarts   prometheus.Counter
	expiredReads prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_merges_total",
			Help:      "Guest to user cart merges by result.",
		}, []string{"result"}),
		mergedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_merged_items_total",
			Help:      "Guest cart items folded into user carts.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sweeps_total",
			Help:      "Expired guest cart sweeps by result.",
		}, []string{"result"}),
		sweptCarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_swept_total",
			Help:      "Expired guest carts deleted by sweeps.",
		}),
		expiredReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_expired_reads_total",
			Help:      "Guest carts found expired and deleted on read.",
		}),
	}
	registerer.MustRegister(m.merges, m.mergedItems, m.sweeps, m.sweptCarts, m.expiredReads)
	return m
}

func (m *Metrics) Merge(err error, mergedCount int) {
	if m == nil {
		return
	}
	if err != nil {
		m.merges.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.merges.WithLabelValues(ResultSuccess).Inc()
	m.mergedItems.Add(float64(mergedCount))
}

func (m *Metrics) Sweep(err error, deleted int64) {
	if m == nil {
		return
	}
	if err != nil {
		m.sweeps.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.sweeps.WithLabelValues(ResultSuccess).Inc()
	m.sweptCarts.Add(float64(deleted))
}

func (m *Metrics) ExpiredRead() {
	if m == nil {
		return
	}
	m.expiredReads.Inc()
}
