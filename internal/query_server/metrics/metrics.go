// Package metrics holds the Prometheus instrumentation for the query
// server.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type QueryMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestErrors    *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

var (
	queryMetricsInstance *QueryMetrics
	queryMetricsOnce     sync.Once
)

// GetQueryMetrics returns the process-wide metrics instance.
func GetQueryMetrics() *QueryMetrics {
	queryMetricsOnce.Do(func() {
		queryMetricsInstance = newQueryMetrics()
	})
	return queryMetricsInstance
}

func newQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "datakit_query_requests_total",
			Help: "Total number of query requests by endpoint",
		}, []string{"endpoint"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datakit_query_request_duration_seconds",
			Help:    "Query request duration by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "datakit_query_request_errors_total",
			Help: "Total number of failed query requests by endpoint",
		}, []string{"endpoint"}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "datakit_id_cache_hits_total",
			Help: "Total number of id listings served from cache",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "datakit_id_cache_misses_total",
			Help: "Total number of id listings that went to the store",
		}),
	}
}

// ObserveRequest records one finished request.
func (m *QueryMetrics) ObserveRequest(endpoint string, start time.Time, failed bool) {
	m.RequestsTotal.WithLabelValues(endpoint).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if failed {
		m.RequestErrors.WithLabelValues(endpoint).Inc()
	}
}
