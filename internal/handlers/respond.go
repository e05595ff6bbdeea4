package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

// respondList writes items, or the no-results message when there are none.
func respondList[T any](c *gin.Context, items []T) {
	if len(items) == 0 {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: constants.NoResultsMessage})
		return
	}
	c.JSON(http.StatusOK, items)
}

// respondCommonError handles the errors shared by every resource. It
// reports whether a response was written.
func respondCommonError(c *gin.Context, err error, fields []string) bool {
	var verr *apierrors.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.Validation(c, verr)
	case errors.Is(err, repository.ErrNoChanges):
		apierrors.NoChanges(c, fields)
	case errors.Is(err, auth.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.Is(err, repository.ErrInvalidValue):
		apierrors.BadRequest(c, err.Error())
	default:
		return false
	}
	return true
}
