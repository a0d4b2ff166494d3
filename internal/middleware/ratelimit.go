package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/ratelimit"
)

// RateLimitMiddleware limits action per authenticated user, or per client
// IP for anonymous requests. A nil limiter disables limiting.
func RateLimitMiddleware(limiter *ratelimit.Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		clientID := "ip:" + c.ClientIP()
		if id := UserID(c); id != 0 {
			clientID = "user:" + strconv.FormatInt(id, 10)
		}

		res, err := limiter.Check(c.Request.Context(), clientID, action)
		if err != nil {
			// Limiter failures never block traffic.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if !res.Allowed {
			rateLimitedTotal.WithLabelValues(action).Inc()
			abort(c, apperror.New(http.StatusTooManyRequests, "rate limit exceeded, try again later"))
			return
		}
		c.Next()
	}
}
