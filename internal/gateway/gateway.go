// Package gateway is the single writer of catalog, status, note, calendar
// and roadmap state. Each operation first tries the hosted backend through
// a circuit breaker and, when that fails, re-runs against the local
// fallback store. Results carry the path that served them.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/metrics"
	"github.com/atinyakov/hacklearn/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const breakerName = "backend"

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	// MaxRequests allowed while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Gateway implements the persistence operations.
type Gateway struct {
	clients *ClientProvider
	breaker *gobreaker.CircuitBreaker[any]
	store   fallback.Store
	log     *zap.Logger
}

// New builds a Gateway over the backend handed out by clients and the
// local store used as fallback.
func New(clients *ClientProvider, store fallback.Store, cfg BreakerConfig, log *zap.Logger) *Gateway {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isDomainErr(err)
		},
	})

	return &Gateway{clients: clients, breaker: cb, store: store, log: log}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// isDomainErr reports errors that describe the request rather than the
// health of the backend. They never trigger the fallback path.
func isDomainErr(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrSolvedIsTerminal) ||
		errors.Is(err, models.ErrValidation)
}

// call runs fn against the backend through the breaker.
func call[T any](ctx context.Context, g *Gateway, fn func(Backend) (T, error)) (T, error) {
	var zero T
	b := g.clients.Client(ctx)
	if b == nil {
		return zero, ErrBackendUnavailable
	}
	v, err := g.breaker.Execute(func() (any, error) {
		return fn(b)
	})
	if err != nil {
		return zero, err
	}
	res, _ := v.(T)
	return res, nil
}

func (g *Gateway) fallingBack(op string, err error) {
	g.log.Warn("backend call failed, using fallback store",
		zap.String("operation", op),
		zap.Error(err),
	)
}

func observe(op string, start time.Time, src Source, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	metrics.GatewayOperations.WithLabelValues(op, string(src), outcome).Inc()
	metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// BreakerState returns the breaker state: closed, open or half-open.
func (g *Gateway) BreakerState() string {
	return g.breaker.State().String()
}

// Health is the connectivity snapshot served by the health endpoint.
type Health struct {
	// Backend is true once a backend client has been set.
	Backend bool   `json:"backend"`
	Breaker string `json:"breaker"`
}

// Health reports whether a backend is available and the breaker state. It
// never waits for the backend.
func (g *Gateway) Health() Health {
	return Health{Backend: g.clients.current() != nil, Breaker: g.BreakerState()}
}
