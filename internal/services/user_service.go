package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/assets"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/validation"
	"gorm.io/gorm"
)

// UserUpdatableFields names the body keys accepted by a user update.
var UserUpdatableFields = []string{"isAdmin", "username", "password", "avatar", "group_id"}

// UserService handles user business logic
type UserService struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
	engine    *repository.Engine
	assets    assets.Store
	log       zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, groupRepo repository.GroupRepository, engine *repository.Engine, store assets.Store, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
		engine:    engine,
		assets:    store,
		log:       log.With().Str("service", "users").Logger(),
	}
}

// ListUsersInput represents filters for listing users
type ListUsersInput struct {
	GroupID optional.Int
	IsAdmin optional.Bool
	Page    optional.Int
}

// CreateUserInput represents input for registering a user
type CreateUserInput struct {
	Username optional.String
	Password optional.String
	IsAdmin  optional.Bool
	Avatar   optional.String
	GroupID  optional.Int
}

// UpdateUserInput represents input for updating a user
type UpdateUserInput struct {
	IsAdmin  optional.Bool
	Username optional.String
	Password optional.String
	Avatar   optional.String
	GroupID  optional.Int
}

// ListUsers returns one page of users matching the filters
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) ([]models.User, error) {
	err := validation.New(ctx).
		Int("group_id", input.GroupID, "").
		Bool("isAdmin", input.IsAdmin).
		Int("page", input.Page, "").
		Validate()
	if err != nil {
		return nil, err
	}

	filter := repository.NewFilter(repository.TableUsers).
		Where(repository.ColumnGroupID, input.GroupID).
		Where(repository.ColumnIsAdmin, input.IsAdmin)

	var users []models.User
	if err := s.engine.List(ctx, filter, input.Page.OrElse(0), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// CreateUser registers a new user
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Username = validation.Sanitize(input.Username)

	err := validation.New(ctx).
		Required("username", input.Username).
		String("username", input.Username, usernameRules).
		Required("password", input.Password).
		String("password", input.Password, passwordRules).
		Bool("isAdmin", input.IsAdmin).
		String("avatar", input.Avatar, avatarRules).
		Int("group_id", input.GroupID, idRules).
		Exists("group_id", input.GroupID, s.groupRepo.Exists).
		Validate()
	if err != nil {
		return nil, err
	}

	username := input.Username.OrElse("")
	if err := s.ensureUsernameFree(ctx, username, 0); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password.OrElse(""))
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Password: hashed,
		IsAdmin:  input.IsAdmin.OrElse(false),
	}
	if groupID, ok := input.GroupID.Get(); ok {
		id := uint64(groupID)
		user.GroupID = &id
	}

	if source, ok := input.Avatar.Get(); ok {
		assetID, err := s.upload(ctx, source)
		if err != nil {
			return nil, err
		}
		user.Avatar = &assetID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if user.Avatar != nil {
			s.release(ctx, *user.Avatar)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Uint64("user_id", user.ID).Bool("isadmin", user.IsAdmin).Msg("user created")
	return user, nil
}

// UpdateUser applies the present fields to the user. Only administrators
// may change the administrator flag.
func (s *UserService) UpdateUser(ctx context.Context, actor auth.Identity, id uint64, input UpdateUserInput) (*models.User, error) {
	input.Username = validation.Sanitize(input.Username)

	err := validation.New(ctx).
		AtLeastOne(UserUpdatableFields, input.IsAdmin, input.Username, input.Password, input.Avatar, input.GroupID).
		Bool("isAdmin", input.IsAdmin).
		String("username", input.Username, usernameRules).
		String("password", input.Password, passwordRules).
		String("avatar", input.Avatar, avatarRules).
		Int("group_id", input.GroupID, idRules).
		Exists("group_id", input.GroupID, s.groupRepo.Exists).
		Validate()
	if err != nil {
		return nil, err
	}

	if input.IsAdmin.Present() {
		if err := auth.RequireAdmin(actor); err != nil {
			return nil, err
		}
	}

	if name, ok := input.Username.Get(); ok {
		if err := s.ensureUsernameFree(ctx, name, id); err != nil {
			return nil, err
		}
	}

	password := optional.Absent[string]()
	if plain, ok := input.Password.Get(); ok {
		hashed, err := auth.HashPassword(plain)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		password = optional.Of(hashed)
	}

	avatar := optional.Absent[string]()
	if source, ok := input.Avatar.Get(); ok {
		assetID, err := s.upload(ctx, source)
		if err != nil {
			return nil, err
		}
		avatar = optional.Of(assetID)
	}

	changes := repository.NewChanges(repository.TableUsers).
		Set(repository.ColumnIsAdmin, input.IsAdmin).
		Set(repository.ColumnUsername, input.Username).
		Set(repository.ColumnPassword, password).
		Set(repository.ColumnAvatar, avatar).
		Set(repository.ColumnGroupID, input.GroupID)

	var user models.User
	if err := s.engine.Update(ctx, changes, id, &user); err != nil {
		if assetID, ok := avatar.Get(); ok {
			s.release(ctx, assetID)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// DeleteUser removes a user and releases its avatar
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrUserNotFound, "find user")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrUserNotFound, "delete user")
	}

	if user.Avatar != nil {
		s.release(ctx, *user.Avatar)
	}

	s.log.Info().Uint64("user_id", id).Msg("user deleted")
	return nil
}

// ensureUsernameFree fails when another user than self owns username.
func (s *UserService) ensureUsernameFree(ctx context.Context, username string, self uint64) error {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		if existing.ID == self {
			return nil
		}
		return apierrors.NewFieldError("username", "is already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	return nil
}

func (s *UserService) upload(ctx context.Context, source string) (string, error) {
	assetID, err := s.assets.Upload(ctx, source)
	if err != nil {
		s.log.Warn().Err(err).Msg("avatar upload failed")
		return "", apierrors.NewFieldError("avatar", "could not be uploaded")
	}
	return assetID, nil
}

func (s *UserService) release(ctx context.Context, assetID string) {
	if err := s.assets.Release(ctx, assetID); err != nil {
		s.log.Warn().Err(err).Str("asset", assetID).Msg("failed to release avatar")
	}
}
