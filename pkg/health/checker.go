package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker probes one dependency and returns nil when it is healthy.
type Checker func() error

// CheckerConfig tunes how a checker probes its dependency.
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default probe configuration.
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// DatabaseChecker returns a health check function for a SQL database.
func DatabaseChecker(db *sql.DB) Checker {
	return DatabaseCheckerWithConfig(db, DefaultCheckerConfig())
}

// DatabaseCheckerWithConfig returns a database checker with a custom config.
func DatabaseCheckerWithConfig(db *sql.DB, config CheckerConfig) Checker {
	return func() error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// RedisChecker returns a health check function for Redis.
func RedisChecker(client *redis.Client) Checker {
	return RedisCheckerWithConfig(client, DefaultCheckerConfig())
}

// RedisCheckerWithConfig returns a Redis checker with a custom config.
func RedisCheckerWithConfig(client *redis.Client, config CheckerConfig) Checker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// HTTPEndpointChecker returns a health check function for an HTTP endpoint.
// Useful for checking external service dependencies.
func HTTPEndpointChecker(url string) Checker {
	return HTTPEndpointCheckerWithConfig(url, DefaultCheckerConfig())
}

// HTTPEndpointCheckerWithConfig returns an HTTP checker with a custom
// config. Any status below 400 counts as healthy.
func HTTPEndpointCheckerWithConfig(url string, config CheckerConfig) Checker {
	client := &http.Client{
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return func() error {
		resp, err := client.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("unhealthy endpoint %s: status %d", url, resp.StatusCode)
		}
		return nil
	}
}

// GRPCEndpointChecker returns a health check function for a gRPC endpoint.
// Placeholder until a gRPC dependency exists; always healthy.
func GRPCEndpointChecker(addr string) Checker {
	return func() error {
		return nil
	}
}

// CompositeChecker combines named checks into one. It reports every failing
// check, prefixed with the composite's name.
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		var failures []string
		for checkName, checker := range checkers {
			if err := checker(); err != nil {
				failures = append(failures, fmt.Sprintf("%s.%s: %v", name, checkName, err))
			}
		}
		if len(failures) == 0 {
			return nil
		}
		sort.Strings(failures)
		return errors.New(strings.Join(failures, "; "))
	}
}

// AsyncChecker runs the check in a goroutine and bounds it with a timeout,
// so a hung dependency cannot hang the health endpoint.
func AsyncChecker(checker Checker, timeout time.Duration) Checker {
	return func() error {
		done := make(chan error, 1)
		go func() {
			done <- checker()
		}()
		select {
		case err := <-done:
			return err
		case <-time.After(timeout):
			return fmt.Errorf("health check timeout after %v", timeout)
		}
	}
}

// CachedChecker memoizes a check result for a TTL, including failures, so
// aggressive health polling does not hammer the dependency.
type CachedChecker struct {
	checker  Checker
	cacheTTL time.Duration

	mu        sync.Mutex
	checked   bool
	checkedAt time.Time
	lastErr   error
}

// NewCachedChecker wraps a checker with result caching.
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{
		checker:  checker,
		cacheTTL: cacheTTL,
	}
}

// Check returns the cached result when fresh, running the underlying
// checker otherwise.
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checked && time.Since(c.checkedAt) < c.cacheTTL {
		return c.lastErr
	}

	c.lastErr = c.checker()
	c.checked = true
	c.checkedAt = time.Now()
	return c.lastErr
}
