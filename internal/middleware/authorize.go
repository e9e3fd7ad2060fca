package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/authz"
	"aperture/api/internal/models"
)

// RequireRoles allows the request through when the session holds any of
// the given roles. Runs after RequireSession.
func RequireRoles(roles ...models.RoleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			abortUnauthenticated(c)
			return
		}

		if !authz.HasRole(session, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "forbidden",
			})
			return
		}

		c.Next()
	}
}
