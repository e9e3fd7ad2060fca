package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/authz"
	"aperture/api/internal/middleware"
	"aperture/api/internal/models"
	"aperture/api/internal/repository"
	"aperture/api/internal/security"
	"aperture/api/internal/service"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	users, err := h.adminService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		fail(c, http.StatusInternalServerError, "could not list users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, gin.H{
			"id":          u.User.ID,
			"email":       u.User.Email,
			"displayName": u.User.DisplayName,
			"isActive":    u.User.IsActive,
			"roles":       u.Roles,
			"tier":        u.Tier,
			"createdAt":   u.User.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

func (h HandlerSet) AdminListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list roles failed")
		fail(c, http.StatusInternalServerError, "could not list roles")
		return
	}

	items := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		items = append(items, gin.H{
			"key":  role.Key,
			"name": role.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

type setStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h HandlerSet) AdminSetUserStatus(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	targetID := c.Param("id")

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		fail(c, http.StatusBadRequest, "active flag required")
		return
	}

	err := h.adminService.SetUserStatus(c.Request.Context(), session, targetID, *req.Active, c.ClientIP())
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

func (h HandlerSet) AdminSetUserRoles(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	targetID := c.Param("id")

	var req setRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "roles list required")
		return
	}

	err := h.adminService.SetUserRoles(c.Request.Context(), session, targetID, req.Roles, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrNoRolesLeft) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h HandlerSet) AdminResetPassword(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	targetID := c.Param("id")

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "newPassword required")
		return
	}

	err := h.adminService.ResetUserPassword(c.Request.Context(), session, targetID, req.NewPassword, c.ClientIP())
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

func (h HandlerSet) AdminSetUserTier(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	targetID := c.Param("id")

	var req setTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "tier required")
		return
	}

	err := h.adminService.SetUserTier(c.Request.Context(), session, targetID, models.MembershipTier(req.Tier), c.ClientIP())
	if err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) respondAdminError(c *gin.Context, err error) {
	var violation *security.PolicyViolation
	switch {
	case errors.Is(err, authz.ErrForbidden):
		fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrUserNotFound):
		fail(c, http.StatusNotFound, "user not found")
	case errors.As(err, &violation):
		fail(c, http.StatusBadRequest, violation.Message)
	case errors.Is(err, service.ErrUnknownTier):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("admin mutation failed")
		fail(c, http.StatusInternalServerError, "operation failed")
	}
}
