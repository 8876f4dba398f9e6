package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/logger"
	"github.com/richxcame/gift-wallet/pkg/ratelimit"
)

// RateLimit enforces per-client request limits. Clients are identified by
// IP; a Redis failure fails open so the limiter never takes the API down.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		identity := c.ClientIP()

		rule := limiter.RuleFor(endpoint, ratelimit.IdentityAnonymous)
		result, err := limiter.Allow(c.Request.Context(), endpoint, identity, rule, ratelimit.IdentityAnonymous)
		if err != nil {
			logger.Warn("rate limit check failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
