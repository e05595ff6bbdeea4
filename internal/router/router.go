// Package router assembles the HTTP surface from explicit dependencies.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/assets"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/database"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/pkg/logger"
	"gorm.io/gorm"
)

// Deps holds everything the router needs. Store and LoginLimiter are
// optional.
type Deps struct {
	DB           *gorm.DB
	Tokens       *auth.TokenManager
	Store        assets.Store
	Log          zerolog.Logger
	CORSOrigins  []string
	LoginLimiter *middleware.RateLimiter
}

// New builds the gin engine with every route registered.
func New(deps Deps) *gin.Engine {
	if deps.Store == nil {
		deps.Store = assets.NopStore{}
	}

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	groupRepo := repository.NewGroupRepository(deps.DB)
	projectRepo := repository.NewProjectRepository(deps.DB)
	engine := repository.NewEngine(deps.DB, deps.Store, deps.Log)

	// Services
	authService := services.NewAuthService(userRepo, deps.Tokens)
	userService := services.NewUserService(userRepo, groupRepo, engine, deps.Store, deps.Log)
	groupService := services.NewGroupService(groupRepo, userRepo, engine, deps.Log)
	projectService := services.NewProjectService(projectRepo, groupRepo, userRepo, engine, deps.Log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		logger.GinLogger(deps.Log),
		logger.GinRecovery(deps.Log),
		middleware.CORS(deps.CORSOrigins),
		metrics.Middleware(),
	)

	requireAuth := middleware.RequireAuth(deps.Tokens, userRepo)
	requireAdmin := middleware.RequireAdmin()

	r.GET("/", func(c *gin.Context) {
		routes := r.Routes()
		index := make([]string, 0, len(routes))
		for _, route := range routes {
			index = append(index, route.Method+" "+route.Path)
		}
		c.JSON(http.StatusOK, gin.H{"routes": index})
	})

	r.GET("/health", func(c *gin.Context) {
		if err := database.Ping(deps.DB, 2*time.Second); err != nil {
			deps.Log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Auth routes
	login := []gin.HandlerFunc{}
	if deps.LoginLimiter != nil {
		login = append(login, deps.LoginLimiter.Middleware())
	}
	r.POST("/login", append(login, authHandler.Login)...)
	r.POST("/authenticate", requireAuth, authHandler.Authenticate)

	// Project routes
	projects := r.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", requireAuth, projectHandler.CreateProject)
		projects.GET("/:projectId", projectHandler.GetProject)
		projects.PATCH("/:projectId", requireAuth, middleware.RequireProjectAccess(projectRepo), projectHandler.UpdateProject)
		projects.DELETE("/:projectId", requireAuth, requireAdmin, projectHandler.DeleteProject)
	}

	// User routes
	users := r.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:userId", userHandler.GetUser)
		users.PATCH("/:userId", requireAuth, middleware.RequireSelf(userRepo, "userId"), userHandler.UpdateUser)
		users.DELETE("/:userId", requireAuth, requireAdmin, userHandler.DeleteUser)
	}

	// Group routes
	groups := r.Group("/groups")
	{
		groups.GET("", groupHandler.ListGroups)
		groups.POST("", requireAuth, groupHandler.CreateGroup)
		groups.POST("/join", requireAuth, groupHandler.JoinGroup)
		groups.GET("/:groupId", groupHandler.GetGroup)
		groups.PATCH("/:groupId", requireAuth, requireAdmin, groupHandler.UpdateGroup)
		groups.DELETE("/:groupId", requireAuth, requireAdmin, groupHandler.DeleteGroup)
	}

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	return r
}
