package ratelimit

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
)

// SubmitRateLimitMiddleware limits submissions per client IP. A limiter
// failure lets the request through.
func (rl *RateLimiter) SubmitRateLimitMiddleware(logger *monitoring.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		result, err := rl.AllowSubmit(c.Request.Context(), ip)
		if err != nil {
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			route := c.FullPath()
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
				rl.metrics.IncrementRateLimitEndpoint(route)
			}
			if logger != nil {
				logger.RateLimitLogger(ip, route, result.Backend, result.RetryAfter)
			}

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			_ = c.Error(apperrors.NewRateLimitError(result.RetryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
