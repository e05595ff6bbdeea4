package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// ErrGroupInUse is returned when deleting a group that projects still reference.
var ErrGroupInUse = errors.New("group is referenced by projects")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Exists reports whether a user with the ID exists
	Exists(ctx context.Context, id uint64) (bool, error)

	// Delete removes a user and clears references to it
	Delete(ctx context.Context, id uint64) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	// Create creates a new group
	Create(ctx context.Context, group *models.Group) error

	// FindByID finds a group by ID
	FindByID(ctx context.Context, id uint64) (*models.Group, error)

	// Exists reports whether a group with the ID exists
	Exists(ctx context.Context, id uint64) (bool, error)

	// Delete removes a group that no project references and detaches its members
	Delete(ctx context.Context, id uint64) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// Delete removes a project
	Delete(ctx context.Context, id uint64) error
}
