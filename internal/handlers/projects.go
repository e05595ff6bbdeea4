package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

type projectRequest struct {
	Title       optional.String `json:"title"`
	Description optional.String `json:"description"`
	GroupID     optional.Int    `json:"group_id"`
	AssignedID  optional.Int    `json:"assigned_id"`
	Status      optional.Int    `json:"status"`
}

// ListProjects returns projects matching every filter given in the query
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context(), services.ListProjectsInput{
		Status:     optional.Parse[int64](c.Query("status")),
		GroupID:    optional.Parse[int64](c.Query("group_id")),
		AssignedID: optional.Parse[int64](c.Query("assigned_id")),
		CreatorID:  optional.Parse[int64](c.Query("creator_id")),
		Page:       optional.Parse[int64](c.Query("page")),
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	respondList(c, dto.ToProjectDTOs(projects))
}

// GetProject returns a specific project by ID
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := utils.ParamID(c, "projectId")
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), id)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), identity, services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		GroupID:     req.GroupID,
		AssignedID:  req.AssignedID,
		Status:      req.Status,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject updates the present fields of a project
// Project is already loaded by RequireProjectAccess middleware
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	updated, err := h.projectService.UpdateProject(c.Request.Context(), identity, project.ID, services.UpdateProjectInput{
		GroupID:     req.GroupID,
		AssignedID:  req.AssignedID,
		Title:       req.Title,
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*updated))
}

// DeleteProject deletes a project
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := utils.ParamID(c, "projectId")
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), id); err != nil {
		respondProjectError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondProjectError(c *gin.Context, err error) {
	if respondCommonError(c, err, services.ProjectUpdatableFields) {
		return
	}
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.Internal(c, err)
	}
}
