package resilience

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

const jitterFactor = 0.1

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig retries everything except context cancellation.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
		RetryableErrors: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig calls fn until it succeeds, returns a non-retryable error,
// runs out of attempts, or ctx ends. A ctx that is already done skips fn.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	op := func() error {
		err := fn()
		if err != nil && config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(newBackOff(config), ctx))
}

// newBackOff maps config onto an exponential policy limited to MaxAttempts calls.
func newBackOff(config RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialDelay
	if config.MaxDelay > 0 {
		b.MaxInterval = config.MaxDelay
	}
	if config.BackoffFactor >= 1 {
		b.Multiplier = config.BackoffFactor
	}
	b.RandomizationFactor = 0
	if config.JitterEnabled {
		b.RandomizationFactor = jitterFactor
	}
	b.MaxElapsedTime = 0

	retries := max(config.MaxAttempts, 1) - 1
	return backoff.WithMaxRetries(b, uint64(retries))
}
