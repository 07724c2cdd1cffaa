// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared across counters.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeFallback = "fallback"
	OutcomeCanceled = "canceled"
)

var (
	// GatekeeperDecisions counts route decisions by authentication state and outcome.
	GatekeeperDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeehouse_gatekeeper_decisions_total",
			Help: "Route decisions made by the gatekeeper middleware",
		},
		[]string{"state", "decision"},
	)

	// RoleCookieGrants counts role cookie writes. outcome is success, fallback or error.
	RoleCookieGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeehouse_role_cookie_grants_total",
			Help: "Role cookie writer results",
		},
		[]string{"role", "outcome"},
	)

	// RoleSyncAttempts counts client-side synchronizer calls.
	RoleSyncAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeehouse_role_sync_attempts_total",
			Help: "Role cookie synchronizer calls to the writer endpoint",
		},
		[]string{"outcome"},
	)

	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeehouse_backend_requests_total",
			Help: "Calls made to the backend service",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffeehouse_backend_request_duration_seconds",
			Help:    "Latency of backend service calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// BackendBreakerState is 0 closed, 1 half-open, 2 open.
	BackendBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coffeehouse_backend_breaker_state",
			Help: "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffeehouse_http_request_duration_seconds",
			Help:    "Latency of inbound HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	CartActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeehouse_cart_actions_total",
			Help: "Cart transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	ReaperPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeehouse_reaper_carts_purged_total",
			Help: "Expired carts removed by the reaper",
		},
	)
)

// ObserveHTTP records one inbound request.
func ObserveHTTP(method string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveBackend records one backend call.
func ObserveBackend(operation, outcome string, elapsed time.Duration) {
	BackendRequests.WithLabelValues(operation, outcome).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
