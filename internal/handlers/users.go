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

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type userRequest struct {
	Username optional.String `json:"username"`
	Password optional.String `json:"password"`
	IsAdmin  optional.Bool   `json:"isAdmin"`
	Avatar   optional.String `json:"avatar"`
	GroupID  optional.Int    `json:"group_id"`
}

// ListUsers returns users filtered by group_id and isAdmin
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), services.ListUsersInput{
		GroupID: optional.Parse[int64](c.Query("group_id")),
		IsAdmin: optional.Parse[bool](c.Query("isAdmin")),
		Page:    optional.Parse[int64](c.Query("page")),
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	respondList(c, dto.ToUserDTOs(users))
}

// GetUser returns a specific user by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := utils.ParamID(c, "userId")
	if !ok {
		apierrors.NotFound(c, "User not found")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser registers a new user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), services.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
		Avatar:   req.Avatar,
		GroupID:  req.GroupID,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser updates the present fields of a user
// Access is checked by RequireSelf middleware
func (h *UserHandler) UpdateUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := utils.ParamID(c, "userId")
	if !ok {
		apierrors.NotFound(c, "User not found")
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), identity, id, services.UpdateUserInput{
		IsAdmin:  req.IsAdmin,
		Username: req.Username,
		Password: req.Password,
		Avatar:   req.Avatar,
		GroupID:  req.GroupID,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser deletes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := utils.ParamID(c, "userId")
	if !ok {
		apierrors.NotFound(c, "User not found")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondUserError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondUserError(c *gin.Context, err error) {
	if respondCommonError(c, err, services.UserUpdatableFields) {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.Internal(c, err)
	}
}
