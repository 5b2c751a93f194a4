package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderingMetrics records order submissions, upstream latency and catalog cache use.
type OrderingMetrics struct {
	orders   *prometheus.CounterVec
	upstream *prometheus.HistogramVec
	catalog  *prometheus.CounterVec
}

// NewOrderingMetrics registers the collectors on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderingMetrics(reg prometheus.Registerer) *OrderingMetrics {
	if reg == nil {
		return &OrderingMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of commerce platform calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
	catalog := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(orders, upstream, catalog)
	return &OrderingMetrics{
		orders:   orders,
		upstream: upstream,
		catalog:  catalog,
	}
}

// IncOrder counts a submission outcome.
func (m *OrderingMetrics) IncOrder(outcome string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveUpstream records one upstream call.
func (m *OrderingMetrics) ObserveUpstream(operation string, duration time.Duration, err error) {
	if m == nil || m.upstream == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstream.WithLabelValues(normalizeLabel(operation), result).Observe(duration.Seconds())
}

// IncCatalogCache counts a cache hit or miss.
func (m *OrderingMetrics) IncCatalogCache(hit bool) {
	if m == nil || m.catalog == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalog.WithLabelValues(result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
