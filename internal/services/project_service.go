package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/validation"
	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectUpdatableFields names the body keys accepted by a project update.
var ProjectUpdatableFields = []string{"group_id", "assigned_id", "title", "status", "description"}

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	engine      *repository.Engine
	log         zerolog.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, groupRepo repository.GroupRepository, userRepo repository.UserRepository, engine *repository.Engine, log zerolog.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		engine:      engine,
		log:         log.With().Str("service", "projects").Logger(),
	}
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Status     optional.Int
	GroupID    optional.Int
	AssignedID optional.Int
	CreatorID  optional.Int
	Page       optional.Int
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title       optional.String
	Description optional.String
	GroupID     optional.Int
	AssignedID  optional.Int
	Status      optional.Int
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	GroupID     optional.Int
	AssignedID  optional.Int
	Title       optional.String
	Status      optional.Int
	Description optional.String
}

// ListProjects returns one page of projects matching every present filter
func (s *ProjectService) ListProjects(ctx context.Context, input ListProjectsInput) ([]models.Project, error) {
	err := validation.New(ctx).
		Int("status", input.Status, "").
		Int("group_id", input.GroupID, "").
		Int("assigned_id", input.AssignedID, "").
		Int("creator_id", input.CreatorID, "").
		Int("page", input.Page, "").
		Validate()
	if err != nil {
		return nil, err
	}

	filter := repository.NewFilter(repository.TableProjects).
		Where(repository.ColumnStatus, input.Status).
		Where(repository.ColumnGroupID, input.GroupID).
		Where(repository.ColumnAssignedID, input.AssignedID).
		Where(repository.ColumnCreatorID, input.CreatorID)

	var projects []models.Project
	if err := s.engine.List(ctx, filter, input.Page.OrElse(0), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return project, nil
}

// CreateProject creates a project in group_id, or in the caller's group
// when group_id is absent. The caller must belong to that group unless it
// is an administrator.
func (s *ProjectService) CreateProject(ctx context.Context, actor auth.Identity, input CreateProjectInput) (*models.Project, error) {
	input.Title = validation.Sanitize(input.Title)
	input.Description = validation.Sanitize(input.Description)

	err := validation.New(ctx).
		Required("title", input.Title).
		String("title", input.Title, titleRules).
		String("description", input.Description, "").
		Int("group_id", input.GroupID, idRules).
		Exists("group_id", input.GroupID, s.groupRepo.Exists).
		Int("assigned_id", input.AssignedID, idRules).
		Exists("assigned_id", input.AssignedID, s.userRepo.Exists).
		Int("status", input.Status, statusRules).
		Validate()
	if err != nil {
		return nil, err
	}

	var groupID uint64
	if id, ok := input.GroupID.Get(); ok {
		groupID = uint64(id)
	} else if actor.GroupID != nil {
		groupID = *actor.GroupID
	} else {
		return nil, apierrors.NewFieldError("group_id", "is required when the caller belongs to no group")
	}

	if err := auth.MemberOfOrAdmin(actor, groupID); err != nil {
		return nil, err
	}

	project := &models.Project{
		GroupID:   groupID,
		CreatorID: actor.ID,
		Title:     input.Title.OrElse(""),
		Status:    input.Status.OrElse(0),
	}
	if id, ok := input.AssignedID.Get(); ok {
		assigned := uint64(id)
		project.AssignedID = &assigned
	}
	if desc, ok := input.Description.Get(); ok {
		project.Description = &desc
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info().Uint64("project_id", project.ID).Uint64("group_id", groupID).Uint64("creator_id", actor.ID).Msg("project created")
	return project, nil
}

// UpdateProject applies the present fields to a project the caller may
// access. Moving a project requires membership of the target group.
func (s *ProjectService) UpdateProject(ctx context.Context, actor auth.Identity, id uint64, input UpdateProjectInput) (*models.Project, error) {
	input.Title = validation.Sanitize(input.Title)
	input.Description = validation.Sanitize(input.Description)

	err := validation.New(ctx).
		AtLeastOne(ProjectUpdatableFields, input.GroupID, input.AssignedID, input.Title, input.Status, input.Description).
		Int("group_id", input.GroupID, idRules).
		Exists("group_id", input.GroupID, s.groupRepo.Exists).
		Int("assigned_id", input.AssignedID, idRules).
		Exists("assigned_id", input.AssignedID, s.userRepo.Exists).
		String("title", input.Title, titleRules).
		Int("status", input.Status, statusRules).
		String("description", input.Description, "").
		Validate()
	if err != nil {
		return nil, err
	}

	if groupID, ok := input.GroupID.Get(); ok {
		if err := auth.MemberOfOrAdmin(actor, uint64(groupID)); err != nil {
			return nil, err
		}
	}

	changes := repository.NewChanges(repository.TableProjects).
		Set(repository.ColumnGroupID, input.GroupID).
		Set(repository.ColumnAssignedID, input.AssignedID).
		Set(repository.ColumnTitle, input.Title).
		Set(repository.ColumnStatus, input.Status).
		Set(repository.ColumnDescription, input.Description)

	var project models.Project
	if err := s.engine.Update(ctx, changes, id, &project); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project
func (s *ProjectService) DeleteProject(ctx context.Context, id uint64) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProjectNotFound, "delete project")
	}

	s.log.Info().Uint64("project_id", id).Msg("project deleted")
	return nil
}
