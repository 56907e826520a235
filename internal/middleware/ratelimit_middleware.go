package middleware

import (
	"net/http"
	"strconv"

	"sensasi-chat/internal/redis"
	"sensasi-chat/internal/services"
	"sensasi-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// SendRateLimitMiddleware caps message sends per user. Apply after the auth
// middleware on the send endpoint.
func SendRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			// Auth middleware rejects unauthenticated calls; nothing to limit.
			c.Next()
			return
		}

		result, err := limiter.AllowSend(c.Request.Context(), userID.String())
		if err != nil {
			// Redis being down should not block sends.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(result.ResetIn.Seconds())))

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}
