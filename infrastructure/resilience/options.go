package resilience

import (
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
	"github.com/felixgeelhaar/heatshift/domain/config"
)

// Option configures the store.
type Option func(*StoreConfig)

// WithMaxConcurrent sets the maximum concurrent operations.
func WithMaxConcurrent(n int) Option {
	return func(c *StoreConfig) {
		c.MaxConcurrent = n
	}
}

// WithCircuitBreaker enables the breaker with a failure threshold and open duration.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *StoreConfig) {
		c.CircuitBreakerEnabled = true
		c.CircuitBreakerThreshold = threshold
		c.CircuitBreakerTimeout = timeout
	}
}

// WithRetry enables retries with exponential backoff.
func WithRetry(attempts int, initialDelay time.Duration, multiplier float64) Option {
	return func(c *StoreConfig) {
		c.RetryEnabled = true
		c.RetryMaxAttempts = attempts
		c.RetryInitialDelay = initialDelay
		c.RetryBackoffMultiplier = multiplier
	}
}

// WithTimeout bounds each operation.
func WithTimeout(d time.Duration) Option {
	return func(c *StoreConfig) {
		c.Timeout = d
	}
}

// WithoutRetry disables retries.
func WithoutRetry() Option {
	return func(c *StoreConfig) {
		c.RetryEnabled = false
	}
}

// WithoutCircuitBreaker disables the breaker.
func WithoutCircuitBreaker() Option {
	return func(c *StoreConfig) {
		c.CircuitBreakerEnabled = false
	}
}

// FromConfig translates the simulation's resilience settings.
func FromConfig(r config.ResilienceConfig) []Option {
	opts := []Option{WithoutRetry(), WithoutCircuitBreaker()}
	if r.Retry.Enabled {
		opts = append(opts, WithRetry(r.Retry.MaxAttempts, r.Retry.InitialDelay.Duration(), r.Retry.Multiplier))
	}
	if r.CircuitBreaker.Enabled {
		opts = append(opts, WithCircuitBreaker(r.CircuitBreaker.Threshold, r.CircuitBreaker.Timeout.Duration()))
	}
	return opts
}

// NewStoreWithOptions wraps next with the default configuration and opts.
func NewStoreWithOptions(next checkpoint.Store, opts ...Option) *Store {
	config := DefaultStoreConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewStore(next, config)
}
