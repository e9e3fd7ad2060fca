package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"aperture/api/internal/config"
	"aperture/api/internal/ratelimit"
)

// KeyFunc derives the bucket key for one request: usually the client IP
// for unauthenticated routes, the user id for authenticated ones.
type KeyFunc func(c *gin.Context) string

func KeyByIP(namespace string) KeyFunc {
	return func(c *gin.Context) string {
		return namespace + ":" + c.ClientIP()
	}
}

func KeyByUser(namespace string) KeyFunc {
	return func(c *gin.Context) string {
		if session := SessionFromContext(c); session != nil {
			return namespace + ":" + session.UserID
		}
		return namespace + ":" + c.ClientIP()
	}
}

// RateLimit applies one fixed-window budget to the route. The refusal
// body tells the caller nothing beyond the refusal itself.
func RateLimit(limiter ratelimit.Limiter, budget config.RateBudget, key KeyFunc, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Consume(c.Request.Context(), key(c), budget.Limit, budget.Window)
		if err != nil {
			// A broken limiter store must not take the route down with
			// it; log and let the request through.
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many attempts",
			})
			return
		}

		c.Next()
	}
}
