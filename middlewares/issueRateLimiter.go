package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// IssueRateLimiter caps how many issues one user may create per window.
// It keeps a counter per user under prefix:<user id> that expires one
// window after the first hit. Requests the handler answers with a non-2xx
// status give their slot back. It must run after AuthMiddleware. A nil
// client disables limiting.
func IssueRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		r := RequesterFrom(c)
		if !r.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please login to submit an issue"})
			return
		}

		ctx := c.Request.Context()
		userKey := prefix + ":" + r.ID.Hex()

		count, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			logger.ErrorContext(ctx, "rate limiter increment failed", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		// First hit in this window starts the clock.
		if count == 1 {
			if err := client.Expire(ctx, userKey, window).Err(); err != nil {
				logger.ErrorContext(ctx, "rate limiter expire failed", slog.Any("error", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, userKey).Result()
			if retryAfter < 0 {
				retryAfter = window
			}
			c.Header("Retry-After", formatSeconds(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int64(retryAfter.Seconds()),
			})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			if err := client.Decr(context.WithoutCancel(ctx), userKey).Err(); err != nil {
				logger.WarnContext(ctx, "rate limiter refund failed", slog.Any("error", err))
			}
		}
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10)
}
