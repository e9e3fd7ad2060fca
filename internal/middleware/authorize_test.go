package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"aperture/api/internal/config"
	"aperture/api/internal/models"
	"aperture/api/internal/ratelimit"
)

func withSession(session *models.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session != nil {
			c.Set(sessionContextKey, session)
		}
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		session  *models.Session
		wantCode int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"wrong role", &models.Session{UserID: "u", Roles: []models.RoleKey{models.RoleCustomer}}, http.StatusForbidden},
		{"admin allowed", &models.Session{UserID: "u", Roles: []models.RoleKey{models.RoleAdmin}}, http.StatusOK},
		{"super admin allowed", &models.Session{UserID: "u", Roles: []models.RoleKey{models.RoleSuperAdmin}}, http.StatusOK},
		{"no roles at all", &models.Session{UserID: "u"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/admin",
				withSession(tt.session),
				RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := ratelimit.NewMemoryLimiter()
	budget := config.RateBudget{Limit: 2, Window: time.Minute}

	router := gin.New()
	router.POST("/login",
		RateLimit(limiter, budget, KeyByIP("test:login"), zerolog.Nop()),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
