package database

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
)

// BreakerConfig configures the circuit breaker guarding store reads
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are configured
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// NewBreaker creates a circuit breaker for the named store. Cancelled or
// timed-out requests do not count as store failures.
func NewBreaker[T any](store string, cfg BreakerConfig, log *logger.Logger) *gobreaker.CircuitBreaker[T] {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}

	metrics.StoreBreakerState.WithLabelValues(store).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        store,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StoreBreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("store circuit breaker state changed",
				"store", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}
