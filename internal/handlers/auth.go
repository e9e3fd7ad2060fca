package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/middleware"
	"aperture/api/internal/models"
	"aperture/api/internal/security"
	"aperture/api/internal/service"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
	Tier        string   `json:"tier"`
}

func sessionToResponse(session models.Session) userResponse {
	roles := make([]string, 0, len(session.Roles))
	for _, r := range session.Roles {
		roles = append(roles, string(r))
	}
	return userResponse{
		ID:          session.UserID,
		Email:       session.Email,
		DisplayName: session.Name,
		Roles:       roles,
		Tier:        string(models.MembershipTierFromRoleKeys(session.Roles)),
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		IP:          c.ClientIP(),
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    sessionToResponse(result.Session),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountLocked):
			fail(c, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, service.ErrUserInactive):
			fail(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, err.Error())
		default:
			h.log.Error().Err(err).Msg("login failed")
			fail(c, http.StatusInternalServerError, "operation failed")
		}
		return
	}

	h.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    sessionToResponse(result.Session),
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if session := middleware.SessionFromContext(c); session != nil {
		h.authService.Logout(session.UserID, c.ClientIP())
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) Me(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    sessionToResponse(*session),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid password payload")
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), service.ChangePasswordInput{
		UserID:          session.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		IP:              c.ClientIP(),
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondAuthError maps service failures to the response taxonomy. Only
// user-facing sentinels and policy messages cross the wire; anything
// else is an internal failure surfaced opaquely.
func (h HandlerSet) respondAuthError(c *gin.Context, err error) {
	var violation *security.PolicyViolation
	switch {
	case errors.As(err, &violation):
		fail(c, http.StatusBadRequest, violation.Message)
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error().Err(err).Msg("auth operation failed")
		fail(c, http.StatusInternalServerError, "operation failed")
	}
}

// The session cookie is the only token transport: http-only so scripts
// never see it, SameSite=Lax alongside the origin guard.
func (h HandlerSet) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.Security.CookieName,
		token,
		int(h.cfg.Security.SessionTTL.Seconds()),
		"/",
		"",
		h.cfg.IsProduction(),
		true,
	)
}

func (h HandlerSet) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
}
