package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"signage-service/internal/models"

	"github.com/gin-gonic/gin"
)

// RateLimiter is implemented by services.RedisService.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter RateLimiter
}

// NewRateLimitMiddleware returns a middleware factory. A nil limiter turns
// every limit into a pass through, used when Redis is not configured.
func NewRateLimitMiddleware(limiter RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// RateLimit limits authenticated callers per user and route. The limit is part
// of the key so layered limits on one route keep separate windows.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			unauthorized(c, "missing user identity")
			return
		}
		key := fmt.Sprintf("rate_limit:%v:%d:%s", userID, requests, c.FullPath())
		rm.check(c, key, requests, window)
	}
}

// RateLimitIP limits public routes per client IP and route.
func (rm *RateLimitMiddleware) RateLimitIP(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit_ip:%s:%d:%s", c.ClientIP(), requests, c.FullPath())
		rm.check(c, key, requests, window)
	}
}

func (rm *RateLimitMiddleware) check(c *gin.Context, key string, requests int, window time.Duration) {
	if rm.limiter == nil {
		c.Next()
		return
	}

	allowed, err := rm.limiter.CheckRateLimit(c.Request.Context(), key, requests, window)
	if err != nil {
		// Fail open while Redis is unreachable.
		slog.Warn("Rate limit check failed", "key", key, "error", err)
		c.Next()
		return
	}

	if !allowed {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Code:    http.StatusTooManyRequests,
			Message: "Rate limit exceeded",
			Details: fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window),
		})
		return
	}

	c.Next()
}
