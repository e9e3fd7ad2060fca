package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"aperture/api/internal/security"
	"aperture/api/internal/service"
)

func TestRespondAuthError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := HandlerSet{log: zerolog.Nop()}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			"policy violation surfaces its message",
			&security.PolicyViolation{Message: "password must contain a digit"},
			http.StatusBadRequest,
			"password must contain a digit",
		},
		{
			"email taken",
			service.ErrEmailTaken,
			http.StatusBadRequest,
			"email already registered",
		},
		{
			"invalid credentials",
			service.ErrInvalidCredentials,
			http.StatusUnauthorized,
			"invalid email or password",
		},
		{
			"storage error stays opaque",
			errors.New(`duplicate key value violates unique constraint "users_email_key"`),
			http.StatusInternalServerError,
			"operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			h.respondAuthError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "duplicate key")
			assert.NotContains(t, w.Body.String(), "users_email_key")
		})
	}
}
