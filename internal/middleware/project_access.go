package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// RequireProjectAccess loads the project named by :projectId and checks the
// caller belongs to its group or is an administrator.
// It must run after RequireAuth.
func RequireProjectAccess(projects repository.ProjectRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		projectID, ok := utils.ParamID(c, "projectId")
		if !ok {
			apierrors.NotFound(c, "Project not found")
			return
		}

		project, err := projects.FindByID(c.Request.Context(), projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Project not found")
				return
			}
			apierrors.Internal(c, err)
			return
		}

		if err := auth.GroupMemberOrAdmin(id, project); err != nil {
			apierrors.Forbidden(c, "You are not a member of this project's group")
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetProject retrieves the project loaded by RequireProjectAccess
func GetProject(c *gin.Context) (*models.Project, bool) {
	v, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := v.(*models.Project)
	return project, ok
}
