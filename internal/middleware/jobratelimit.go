package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/ratelimit"
)

// JobRateLimit gates admission-sensitive routes (every POST /jobs*)
// through the configured ratelimit.Limiter, per client IP.
func JobRateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := limiter.Allow(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			err := apierrors.RateLimitExceeded(retryAfter)
			c.AbortWithStatusJSON(err.Status, err)
			return
		}
		c.Next()
	}
}
