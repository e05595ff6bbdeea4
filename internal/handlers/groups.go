package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

type groupRequest struct {
	Name    optional.String `json:"name"`
	AdminID optional.Int    `json:"admin_id"`
}

// ListGroups returns groups, optionally filtered by admin_id
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.ListGroups(c.Request.Context(), services.ListGroupsInput{
		AdminID: optional.Parse[int64](c.Query("admin_id")),
		Page:    optional.Parse[int64](c.Query("page")),
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	respondList(c, dto.ToGroupDTOs(groups))
}

// GetGroup returns a specific group by ID
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := utils.ParamID(c, "groupId")
	if !ok {
		apierrors.NotFound(c, "Group not found")
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

// CreateGroup creates a new group
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), identity, services.CreateGroupInput{
		Name:    req.Name,
		AdminID: req.AdminID,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupDTO(*group))
}

// UpdateGroup renames a group or reassigns its administrator
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := utils.ParamID(c, "groupId")
	if !ok {
		apierrors.NotFound(c, "Group not found")
		return
	}

	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), id, services.UpdateGroupInput{
		Name:    req.Name,
		AdminID: req.AdminID,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

// DeleteGroup deletes a group
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := utils.ParamID(c, "groupId")
	if !ok {
		apierrors.NotFound(c, "Group not found")
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), id); err != nil {
		respondGroupError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// JoinGroup moves a user into a group
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinGroupRequest struct {
		UserID  optional.Int `json:"userId"`
		GroupID optional.Int `json:"groupId"`
	}

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	user, err := h.groupService.JoinGroup(c.Request.Context(), identity, services.JoinGroupInput{
		UserID:  req.UserID,
		GroupID: req.GroupID,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func respondGroupError(c *gin.Context, err error) {
	if respondCommonError(c, err, services.GroupUpdatableFields) {
		return
	}
	switch {
	case errors.Is(err, services.ErrGroupNotFound), errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrGroupInUse):
		apierrors.Conflict(c, "Group still has projects")
	default:
		apierrors.Internal(c, err)
	}
}
