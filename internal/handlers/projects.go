package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aperture/api/internal/audit"
	"aperture/api/internal/authz"
	"aperture/api/internal/middleware"
	"aperture/api/internal/models"
	"aperture/api/internal/repository"
)

func projectToResponse(project models.Project) gin.H {
	return gin.H{
		"id":        project.ID,
		"title":     project.Title,
		"clientId":  project.ClientID,
		"status":    project.Status,
		"createdAt": project.CreatedAt,
		"updatedAt": project.UpdatedAt,
	}
}

func (h HandlerSet) ListProjects(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	projects, err := h.projects.ListVisible(c.Request.Context(), session, 100, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("list projects failed")
		fail(c, http.StatusInternalServerError, "could not list projects")
		return
	}

	items := make([]gin.H, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectToResponse(project))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

func (h HandlerSet) GetProject(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	projectID := c.Param("id")

	if !authz.CanAccessProject(c.Request.Context(), h.projects, session, projectID) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			fail(c, http.StatusNotFound, "project not found")
			return
		}
		h.log.Error().Err(err).Msg("get project failed")
		fail(c, http.StatusInternalServerError, "could not load project")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"project": projectToResponse(project),
	})
}

type setProjectStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var validProjectStatuses = map[models.ProjectStatus]struct{}{
	models.ProjectStatusPlanning:  {},
	models.ProjectStatusShooting:  {},
	models.ProjectStatusEditing:   {},
	models.ProjectStatusDelivered: {},
	models.ProjectStatusArchived:  {},
}

// SetProjectStatus is for the studio side: assigned photographers and
// admins. Clients read status, they do not set it.
func (h HandlerSet) SetProjectStatus(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	projectID := c.Param("id")

	if !authz.HasRole(session, models.RolePhotographer, models.RoleAdmin, models.RoleSuperAdmin) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}
	if !authz.CanAccessProject(c.Request.Context(), h.projects, session, projectID) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}

	var req setProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "status required")
		return
	}

	status := models.ProjectStatus(req.Status)
	if _, ok := validProjectStatuses[status]; !ok {
		fail(c, http.StatusBadRequest, "unknown project status")
		return
	}

	if err := h.projects.UpdateStatus(c.Request.Context(), projectID, status); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			fail(c, http.StatusNotFound, "project not found")
			return
		}
		h.log.Error().Err(err).Msg("update project status failed")
		fail(c, http.StatusInternalServerError, "could not update project")
		return
	}

	h.recorder.Record(audit.Entry{
		ActorUserID:  session.UserID,
		Action:       "project.status",
		ResourceType: "project",
		ResourceID:   projectID,
		Payload:      map[string]any{"status": req.Status},
		IP:           c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) ListProjectAssets(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	projectID := c.Param("id")

	if !authz.CanAccessProject(c.Request.Context(), h.projects, session, projectID) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}

	assets, err := h.projects.ListAssets(c.Request.Context(), projectID)
	if err != nil {
		h.log.Error().Err(err).Msg("list assets failed")
		fail(c, http.StatusInternalServerError, "could not list assets")
		return
	}

	items := make([]gin.H, 0, len(assets))
	for _, asset := range assets {
		items = append(items, gin.H{
			"id":        asset.ID,
			"fileName":  asset.FileName,
			"sizeBytes": asset.SizeBytes,
			"createdAt": asset.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

func (h HandlerSet) DownloadProjectAsset(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	projectID := c.Param("id")
	assetID := c.Param("assetId")

	if !authz.CanAccessProject(c.Request.Context(), h.projects, session, projectID) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}

	asset, err := h.projects.GetAsset(c.Request.Context(), projectID, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			fail(c, http.StatusNotFound, "asset not found")
			return
		}
		h.log.Error().Err(err).Msg("get asset failed")
		fail(c, http.StatusInternalServerError, "could not load asset")
		return
	}

	url, err := h.store.PresignedDownload(c.Request.Context(), asset.ObjectKey, asset.FileName)
	if err != nil {
		h.log.Error().Err(err).Msg("presign asset failed")
		fail(c, http.StatusInternalServerError, "could not prepare download")
		return
	}

	h.recorder.Record(audit.Entry{
		ActorUserID:  session.UserID,
		Action:       "asset.download",
		ResourceType: "asset",
		ResourceID:   asset.ID,
		IP:           c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}
