package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_client_requests_total",
		Help: "Total number of requests sent to the backend",
	}, []string{"method", "route", "status"})

	clientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homefinder_client_request_duration_seconds",
		Help:    "Duration of requests sent to the backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	optimisticRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_client_optimistic_rollbacks_total",
		Help: "Count of optimistic updates reverted after a failed request",
	}, []string{"operation"})

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_client_stale_responses_total",
		Help: "Count of responses discarded because a newer request was issued",
	}, []string{"slice"})

	sessionExpirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homefinder_client_session_expirations_total",
		Help: "Count of sessions cleared after a 401 response",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_mockapi_http_requests_total",
		Help: "Total number of HTTP requests served by the fake backend",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homefinder_mockapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests served by the fake backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// ObserveClientRequest records an outbound request. A zero status means no
// response was received.
func ObserveClientRequest(method, route string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	clientRequestsTotal.WithLabelValues(method, route, label).Inc()
	clientRequestDuration.WithLabelValues(method, route, label).Observe(duration.Seconds())
}

// ObserveRollback records a reverted optimistic update.
func ObserveRollback(operation string) {
	optimisticRollbacks.WithLabelValues(operation).Inc()
}

// ObserveStaleResponse records a response dropped by request sequencing.
func ObserveStaleResponse(slice string) {
	staleResponses.WithLabelValues(slice).Inc()
}

// ObserveSessionExpired records a session reset triggered by a 401.
func ObserveSessionExpired() {
	sessionExpirations.Inc()
}

// ObserveHTTPRequest records a request served by the fake backend.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
