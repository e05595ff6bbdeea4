package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// RequireAuth verifies the bearer token and resolves the caller against the
// user store. The resulting auth.Identity is stored in the context.
func RequireAuth(tokens *auth.TokenManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			metrics.AuthFailuresTotal.WithLabelValues("missing").Inc()
			apierrors.Unauthorized(c, "")
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrMalformedToken) {
				metrics.AuthFailuresTotal.WithLabelValues("malformed").Inc()
				apierrors.BadRequest(c, "Malformed token")
				return
			}
			metrics.AuthFailuresTotal.WithLabelValues("invalid").Inc()
			apierrors.InvalidToken(c)
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
				apierrors.Unauthorized(c, "")
				return
			}
			apierrors.Internal(c, err)
			return
		}

		c.Set(constants.ContextKeyIdentity, auth.IdentityOf(user))
		c.Next()
	}
}

// GetIdentity retrieves the authenticated caller from context
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// RequireAdmin allows administrators only. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if err := auth.RequireAdmin(id); err != nil {
			apierrors.Forbidden(c, "Administrator role required")
			return
		}
		c.Next()
	}
}

// RequireSelf allows the user named by the path parameter, or an
// administrator. The user must exist.
func RequireSelf(users repository.UserRepository, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		userID, ok := utils.ParamID(c, param)
		if !ok {
			apierrors.NotFound(c, "User not found")
			return
		}

		exists, err := users.Exists(c.Request.Context(), userID)
		if err != nil {
			apierrors.Internal(c, err)
			return
		}
		if !exists {
			apierrors.NotFound(c, "User not found")
			return
		}

		if err := auth.OwnerOrAdmin(id, userID); err != nil {
			apierrors.Forbidden(c, "You can only modify your own account")
			return
		}
		c.Next()
	}
}
