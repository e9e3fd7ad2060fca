package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/config"
	"aperture/api/internal/models"
	"aperture/api/internal/security"
	"aperture/api/internal/service"
)

const sessionContextKey = "session"

// RequireSession resolves the session cookie into a live session. The
// token only proves identity; roles come from storage on every request.
// Every failure mode, missing cookie, bad signature, expired token,
// deactivated user, reports identically as "not authenticated".
func RequireSession(cfg *config.AppConfig, auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.Security.CookieName)
		if err != nil || token == "" {
			abortUnauthenticated(c)
			return
		}

		userID, ok := security.VerifySessionToken(token, cfg.Security.SessionSecret)
		if !ok {
			abortUnauthenticated(c)
			return
		}

		session, err := auth.LoadSession(c.Request.Context(), userID)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// SessionFromContext returns the session set by RequireSession, or nil
// on routes that never passed through it.
func SessionFromContext(c *gin.Context) *models.Session {
	val, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	session, ok := val.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "not authenticated",
	})
}
