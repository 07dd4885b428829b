// Package resilience guards checkpoint storage with fortify's bulkhead,
// circuit breaker and retry.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// StoreConfig configures the resilient store.
type StoreConfig struct {
	// MaxConcurrent limits concurrent store operations.
	MaxConcurrent int

	// CircuitBreakerEnabled puts a breaker in front of the store.
	CircuitBreakerEnabled bool

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryEnabled retries failed operations.
	RetryEnabled bool

	// RetryMaxAttempts is the maximum number of attempts.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// Timeout bounds each operation including its retries.
	Timeout time.Duration
}

// DefaultStoreConfig returns a configuration with sensible defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MaxConcurrent:           4,
		CircuitBreakerEnabled:   true,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryEnabled:            true,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       100 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		Timeout:                 time.Minute,
	}
}

// Store wraps a checkpoint store. Composition order is
// bulkhead, timeout, circuit breaker, retry. Not-found and validation
// errors are returned at once and do not count against the breaker.
type Store struct {
	next     checkpoint.Store
	bulkhead bulkhead.Bulkhead[struct{}]
	breaker  circuitbreaker.CircuitBreaker[struct{}]
	retry    retry.Retry[struct{}]
	config   StoreConfig
}

var _ checkpoint.Store = (*Store)(nil)

// NewStore wraps next.
func NewStore(next checkpoint.Store, config StoreConfig) *Store {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	attempts := config.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	return &Store{
		next: next,
		bulkhead: bulkhead.New[struct{}](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- positive above
			},
		}),
		retry: retry.New[struct{}](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		config: config,
	}
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, checkpoint.ErrCheckpointNotFound) ||
		errors.Is(err, checkpoint.ErrInvalidRunID) ||
		errors.Is(err, checkpoint.ErrInvalidCheckpoint) ||
		errors.Is(err, context.Canceled)
}

func (s *Store) do(ctx context.Context, op func(context.Context) error) error {
	var final error
	attempt := func(ctx context.Context) (struct{}, error) {
		err := op(ctx)
		if err != nil && permanent(err) {
			final = err
			return struct{}{}, nil
		}
		return struct{}{}, err
	}
	withRetry := attempt
	if s.config.RetryEnabled {
		withRetry = func(ctx context.Context) (struct{}, error) {
			return s.retry.Do(ctx, attempt)
		}
	}
	guarded := withRetry
	if s.config.CircuitBreakerEnabled {
		guarded = func(ctx context.Context) (struct{}, error) {
			return s.breaker.Execute(ctx, withRetry)
		}
	}

	_, err := s.bulkhead.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		if s.config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
			defer cancel()
		}
		return guarded(ctx)
	})
	if err != nil {
		return err
	}
	return final
}

// Save implements checkpoint.Store.
func (s *Store) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.next.Save(ctx, cp)
	})
}

// Load implements checkpoint.Store.
func (s *Store) Load(ctx context.Context, runID string, step int) (*checkpoint.Checkpoint, error) {
	var cp *checkpoint.Checkpoint
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		cp, err = s.next.Load(ctx, runID, step)
		return err
	})
	return cp, err
}

// Latest implements checkpoint.Store.
func (s *Store) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	var cp *checkpoint.Checkpoint
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		cp, err = s.next.Latest(ctx, runID)
		return err
	})
	return cp, err
}

// List implements checkpoint.Store.
func (s *Store) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	var infos []checkpoint.Info
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		infos, err = s.next.List(ctx, runID)
		return err
	})
	return infos, err
}

// Delete implements checkpoint.Store.
func (s *Store) Delete(ctx context.Context, runID string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.next.Delete(ctx, runID)
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (s *Store) CircuitBreakerState() circuitbreaker.State {
	return s.breaker.State()
}

// Unwrap returns the wrapped store.
func (s *Store) Unwrap() checkpoint.Store {
	return s.next
}
