package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal counts handled HTTP requests by method, path and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// MLRequestsTotal counts analysis service calls by outcome
	// (ok / timeout / unavailable / upstream_error / error).
	MLRequestsTotal *prometheus.CounterVec

	// MLRequestDuration observes analysis service call latency in seconds.
	MLRequestDuration prometheus.Histogram

	// HistoryWritesTotal counts best-effort history writes by result (ok / failed).
	HistoryWritesTotal *prometheus.CounterVec
)

// InitMetrics registers all collectors. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curhat_http_requests_total",
			Help: "Handled HTTP requests.",
		}, []string{"method", "path", "status"})

		MLRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curhat_ml_requests_total",
			Help: "Analysis service calls by outcome.",
		}, []string{"outcome"})

		MLRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "curhat_ml_request_duration_seconds",
			Help:    "Analysis service call latency.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		})

		HistoryWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curhat_history_writes_total",
			Help: "Best-effort history writes by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			HTTPRequestsTotal,
			MLRequestsTotal,
			MLRequestDuration,
			HistoryWritesTotal,
		)
	})
}

// ObserveMLCall records one analysis service call.
func ObserveMLCall(outcome string, seconds float64) {
	if MLRequestsTotal == nil {
		return
	}
	MLRequestsTotal.WithLabelValues(outcome).Inc()
	MLRequestDuration.Observe(seconds)
}
