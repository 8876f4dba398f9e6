package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/gift-wallet/pkg/config"
)

// IdentityType distinguishes authenticated callers from anonymous ones for
// limit selection.
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the resolved limit for one (endpoint, identity) pair.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// tokenBucketScript implements a token bucket in Redis. State is a hash of
// current tokens plus the last refill timestamp; refill rate is limit
// tokens per window, capacity is limit+burst. Returns
// {allowed, remaining, retry_after, reset_after}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local capacity = limit + burst
local rate = limit / window

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local elapsed = now - ts
if elapsed < 0 then
  elapsed = 0
end
tokens = tokens + elapsed * rate
if tokens > capacity then
  tokens = capacity
end

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after = (1 - tokens) / rate
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
redis.call("EXPIRE", key, math.ceil(window * 2))

local reset_after = (capacity - tokens) / rate
return {allowed, math.floor(tokens), tostring(retry_after), tostring(reset_after)}
`)

// Limiter applies per-identity request limits backed by Redis.
type Limiter struct {
	client *redis.Client
	script *redis.Script
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewLimiter creates a limiter over the given Redis client.
func NewLimiter(client *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		script: tokenBucketScript,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the limiter's clock. Tests use this.
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// RuleFor resolves the limit for an endpoint and identity class, applying
// any per-endpoint override. An override's zero limit falls back to the
// default; its burst applies as-is.
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	var limit, burst int
	if identity == IdentityAuthenticated {
		limit, burst = l.cfg.DefaultLimit, l.cfg.DefaultBurst
	} else {
		limit, burst = l.cfg.AnonymousLimit, l.cfg.AnonymousBurst
	}
	window := l.cfg.Window()

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		if identity == IdentityAuthenticated {
			if override.AuthenticatedLimit > 0 {
				limit = override.AuthenticatedLimit
			}
			burst = override.AuthenticatedBurst
		} else {
			if override.AnonymousLimit > 0 {
				limit = override.AnonymousLimit
			}
			burst = override.AnonymousBurst
		}
		if override.WindowSeconds > 0 {
			window = time.Duration(override.WindowSeconds) * time.Second
		}
	}

	if burst < 0 {
		burst = 0
	}
	return Rule{Limit: limit, Burst: burst, Window: window}
}

// Allow records one request against the rule and reports whether it may
// proceed. A disabled limiter or non-positive limit always allows.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (Result, error) {
	result := Result{
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}

	if !l.cfg.Enabled || rule.Limit <= 0 {
		result.Allowed = true
		if rule.Limit > 0 {
			result.Remaining = rule.Limit
		}
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpoint, identity)
	nowSeconds := float64(l.now().UnixNano()) / float64(time.Second)

	res, err := l.script.Run(ctx, l.client, []string{key},
		rule.Limit,
		rule.Burst,
		formatFloat(window.Seconds()),
		formatFloat(nowSeconds),
	).Result()
	if err != nil {
		return result, fmt.Errorf("rate limit script: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 4 {
		return result, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	result.Allowed = toInt(values[0]) == 1
	result.Remaining = toInt(values[1])
	result.RetryAfter = time.Duration(toFloat(values[2]) * float64(time.Second))
	result.ResetAfter = time.Duration(toFloat(values[3]) * float64(time.Second))
	return result, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch value := v.(type) {
	case int64:
		return int(value)
	case int:
		return value
	case float64:
		return int(value)
	case string:
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
