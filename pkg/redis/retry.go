package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/logger"
	"github.com/richxcame/gift-wallet/pkg/resilience"
)

// ClientInterface is the surface consumers depend on, so tests can substitute
// an in-memory implementation for a live connection.
type ClientInterface interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

var _ ClientInterface = (*Client)(nil)

// nonRetryableRedisMessages are command-level failures that will not heal on
// their own: wrong data types, bad syntax, auth problems, aborted
// transactions. Retrying these only repeats the same mistake.
var nonRetryableRedisMessages = []string{
	"wrongtype",
	"err syntax",
	"err invalid",
	"noauth",
	"wrongpass",
	"noperm",
	"err unknown",
	"execabort",
}

// isRedisRetryable classifies a Redis error as transient or permanent.
// Connection failures, timeouts, LOADING/BUSY states and cluster redirections
// (MOVED, ASK, TRYAGAIN, CLUSTERDOWN) all clear up on their own, so anything
// not recognized as a command-level failure is treated as retryable.
func isRedisRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A missing key is a result, not a failure.
	if errors.Is(err, redis.Nil) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range nonRetryableRedisMessages {
		if strings.Contains(msg, pattern) {
			return false
		}
	}
	return true
}

// ConservativeRetryConfig retries Redis operations a couple of times with
// short backoffs. Suited to writes on the request path, where a long stall is
// worse than surfacing the error.
func ConservativeRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        1 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
		RetryableChecker:  isRedisRetryable,
	}
}

// AggressiveRetryConfig retries more often with tighter backoffs. Suited to
// idempotent reads where the caller can absorb a short delay.
func AggressiveRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    20 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
		RetryableChecker:  isRedisRetryable,
	}
}

// RetryableOperation runs op under the conservative retry policy and returns
// its typed result. The name identifies the operation in logs.
func RetryableOperation[T any](ctx context.Context, op func(ctx context.Context) (T, error), name string) (T, error) {
	result, err := resilience.Retry(ctx, ConservativeRetryConfig(), func(ctx context.Context) (interface{}, error) {
		return op(ctx)
	})
	if err != nil {
		logger.Warn("redis operation failed",
			zap.String("operation", name),
			zap.Error(err))
		var zero T
		return zero, err
	}
	return result.(T), nil
}
