package config

import "time"

// Default per-operation Redis timeouts, in seconds.
const (
	DefaultRedisReadTimeout  = 3
	DefaultRedisWriteTimeout = 3
)

// DefaultRedisReadTimeoutDuration returns the default read timeout.
func DefaultRedisReadTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisReadTimeout) * time.Second
}

// DefaultRedisWriteTimeoutDuration returns the default write timeout.
func DefaultRedisWriteTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisWriteTimeout) * time.Second
}

// TimeoutConfig carries per-operation timeouts, in seconds. A zero read or
// write timeout falls back to RedisOperationTimeout.
type TimeoutConfig struct {
	RedisReadTimeout      int
	RedisWriteTimeout     int
	RedisOperationTimeout int
}

func (c *TimeoutConfig) RedisReadTimeoutDuration() time.Duration {
	if c.RedisReadTimeout > 0 {
		return time.Duration(c.RedisReadTimeout) * time.Second
	}
	return time.Duration(c.RedisOperationTimeout) * time.Second
}

func (c *TimeoutConfig) RedisWriteTimeoutDuration() time.Duration {
	if c.RedisWriteTimeout > 0 {
		return time.Duration(c.RedisWriteTimeout) * time.Second
	}
	return time.Duration(c.RedisOperationTimeout) * time.Second
}
