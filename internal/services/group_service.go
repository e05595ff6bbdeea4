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

var ErrGroupNotFound = errors.New("group not found")

// GroupUpdatableFields names the body keys accepted by a group update.
var GroupUpdatableFields = []string{"name", "admin_id"}

// GroupService handles group business logic
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	engine    *repository.Engine
	log       zerolog.Logger
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, engine *repository.Engine, log zerolog.Logger) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		engine:    engine,
		log:       log.With().Str("service", "groups").Logger(),
	}
}

// ListGroupsInput represents filters for listing groups
type ListGroupsInput struct {
	AdminID optional.Int
	Page    optional.Int
}

// CreateGroupInput represents input for creating a group
type CreateGroupInput struct {
	Name    optional.String
	AdminID optional.Int
}

// UpdateGroupInput represents input for updating a group
type UpdateGroupInput struct {
	Name    optional.String
	AdminID optional.Int
}

// JoinGroupInput represents input for moving a user into a group
type JoinGroupInput struct {
	UserID  optional.Int
	GroupID optional.Int
}

// ListGroups returns one page of groups matching the filters
func (s *GroupService) ListGroups(ctx context.Context, input ListGroupsInput) ([]models.Group, error) {
	err := validation.New(ctx).
		Int("admin_id", input.AdminID, "").
		Int("page", input.Page, "").
		Validate()
	if err != nil {
		return nil, err
	}

	filter := repository.NewFilter(repository.TableGroups).
		Where(repository.ColumnAdminID, input.AdminID)

	var groups []models.Group
	if err := s.engine.List(ctx, filter, input.Page.OrElse(0), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup retrieves a group by ID
func (s *GroupService) GetGroup(ctx context.Context, id uint64) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrGroupNotFound, "find group")
	}
	return group, nil
}

// CreateGroup creates a group administered by admin_id, or by the caller
// when admin_id is absent. The administrator must hold the admin role.
func (s *GroupService) CreateGroup(ctx context.Context, actor auth.Identity, input CreateGroupInput) (*models.Group, error) {
	input.Name = validation.Sanitize(input.Name)

	err := validation.New(ctx).
		Required("name", input.Name).
		String("name", input.Name, nameRules).
		Int("admin_id", input.AdminID, idRules).
		Validate()
	if err != nil {
		return nil, err
	}

	adminID := uint64(input.AdminID.OrElse(int64(actor.ID)))
	if err := s.ensureAdministrator(ctx, adminID); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:    input.Name.OrElse(""),
		AdminID: &adminID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.log.Info().Uint64("group_id", group.ID).Uint64("admin_id", adminID).Msg("group created")
	return group, nil
}

// UpdateGroup renames a group or reassigns its administrator. A missing
// group is reported before any field is checked.
func (s *GroupService) UpdateGroup(ctx context.Context, id uint64, input UpdateGroupInput) (*models.Group, error) {
	exists, err := s.groupRepo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if !exists {
		return nil, ErrGroupNotFound
	}

	input.Name = validation.Sanitize(input.Name)

	err = validation.New(ctx).
		AtLeastOne(GroupUpdatableFields, input.Name, input.AdminID).
		String("name", input.Name, nameRules).
		Int("admin_id", input.AdminID, idRules).
		Validate()
	if err != nil {
		return nil, err
	}

	if adminID, ok := input.AdminID.Get(); ok {
		if err := s.ensureAdministrator(ctx, uint64(adminID)); err != nil {
			return nil, err
		}
	}

	changes := repository.NewChanges(repository.TableGroups).
		Set(repository.ColumnName, input.Name).
		Set(repository.ColumnAdminID, input.AdminID)

	var group models.Group
	if err := s.engine.Update(ctx, changes, id, &group); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group. Groups that still own projects are kept.
func (s *GroupService) DeleteGroup(ctx context.Context, id uint64) error {
	if err := s.groupRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrGroupInUse) {
			return err
		}
		return notFound(err, ErrGroupNotFound, "delete group")
	}

	s.log.Info().Uint64("group_id", id).Msg("group deleted")
	return nil
}

// JoinGroup moves a user into a group. Callers may move themselves;
// administrators may move anyone.
func (s *GroupService) JoinGroup(ctx context.Context, actor auth.Identity, input JoinGroupInput) (*models.User, error) {
	err := validation.New(ctx).
		Required("userId", input.UserID).
		Int("userId", input.UserID, idRules).
		Required("groupId", input.GroupID).
		Int("groupId", input.GroupID, idRules).
		Exists("groupId", input.GroupID, s.groupRepo.Exists).
		Validate()
	if err != nil {
		return nil, err
	}

	userID := uint64(input.UserID.OrElse(0))
	if err := auth.OwnerOrAdmin(actor, userID); err != nil {
		return nil, err
	}

	changes := repository.NewChanges(repository.TableUsers).
		Set(repository.ColumnGroupID, input.GroupID)

	var user models.User
	if err := s.engine.Update(ctx, changes, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ensureAdministrator checks admin_id references an existing administrator.
func (s *GroupService) ensureAdministrator(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NewFieldError("admin_id", "does not exist")
		}
		return fmt.Errorf("failed to find administrator: %w", err)
	}
	if !user.IsAdmin {
		return apierrors.NewFieldError("admin_id", "must reference an administrator")
	}
	return nil
}
