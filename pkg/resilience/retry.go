package resilience

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// Operation is a unit of work executed under retry and/or breaker policies.
type Operation func(ctx context.Context) (interface{}, error)

// RetryConfig controls retry behavior for an operation.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	EnableJitter      bool

	// RetryableErrors limits retries to errors matching this list (via errors.Is).
	// Ignored when RetryableChecker is set.
	RetryableErrors []error

	// RetryableChecker decides retry eligibility when set. Takes precedence over
	// RetryableErrors.
	RetryableChecker func(error) bool
}

// DefaultRetryConfig returns a balanced retry policy for most outbound calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// AggressiveRetryConfig retries more often with shorter initial waits.
// Suited to idempotent reads against flaky upstreams.
func AggressiveRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        16 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// ConservativeRetryConfig retries at most once more, with longer waits.
func ConservativeRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// Retry executes the operation until it succeeds, the attempt budget is spent,
// the error is classified non-retryable, or the context ends.
func Retry(ctx context.Context, config RetryConfig, operation Operation) (interface{}, error) {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, ctx.Err()
		}

		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts || !shouldRetry(err, config) {
			return nil, err
		}

		timer := time.NewTimer(calculateBackoff(attempt, config))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// RetryWithBreaker runs the operation through the circuit breaker on every
// retry attempt, so an open breaker short-circuits the remaining budget.
func RetryWithBreaker(ctx context.Context, config RetryConfig, breaker *CircuitBreaker, operation Operation) (interface{}, error) {
	return Retry(ctx, config, func(ctx context.Context) (interface{}, error) {
		return breaker.Execute(ctx, operation)
	})
}

func shouldRetry(err error, config RetryConfig) bool {
	if err == nil {
		return false
	}
	// An open breaker or a dead context will not heal within the backoff window.
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if config.RetryableChecker != nil {
		return config.RetryableChecker(err)
	}
	if len(config.RetryableErrors) > 0 {
		for _, retryable := range config.RetryableErrors {
			if errors.Is(err, retryable) {
				return true
			}
		}
		return false
	}
	return true
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	backoff := float64(config.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= multiplier
		if time.Duration(backoff) >= config.MaxBackoff {
			break
		}
	}

	result := time.Duration(backoff)
	if config.MaxBackoff > 0 && result > config.MaxBackoff {
		result = config.MaxBackoff
	}
	if config.EnableJitter {
		result = addJitter(result)
	}
	return result
}

// addJitter returns a random duration in [0, d].
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

// IsRetryableHTTPStatus reports whether an HTTP status code is worth retrying.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return statusCode >= 500
}
