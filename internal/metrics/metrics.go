// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayOperations counts gateway calls by the path that served them
	// (backend, fallback, demo) and outcome.
	GatewayOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacklearn_gateway_operations_total",
			Help: "Persistence gateway operations by serving path and outcome",
		},
		[]string{"operation", "source", "outcome"},
	)

	// GatewayDuration tracks gateway latency including any fallback.
	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hacklearn_gateway_duration_seconds",
			Help:    "Persistence gateway operation latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState is 0 closed, 1 open, 2 half-open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hacklearn_circuit_breaker_state",
			Help: "Backend circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacklearn_circuit_breaker_transitions_total",
			Help: "Backend circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTPRequests counts API requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacklearn_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// TrophiesUnlocked counts trophy unlock notifications.
	TrophiesUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacklearn_trophies_unlocked_total",
			Help: "Trophies newly unlocked",
		},
		[]string{"trophy"},
	)

	FallbackPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hacklearn_fallback_pruned_total",
			Help: "Entries removed from the fallback store by the pruner",
		},
	)
)
