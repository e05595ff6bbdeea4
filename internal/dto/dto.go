package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64  `json:"id"`
	Username string  `json:"username"`
	IsAdmin  bool    `json:"isadmin"`
	Avatar   *string `json:"avatar"`
	GroupID  *uint64 `json:"group_id"`
}

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	AdminID *uint64 `json:"admin_id"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	GroupID     uint64    `json:"group_id"`
	CreatorID   uint64    `json:"creator_id"`
	AssignedID  *uint64   `json:"assigned_id"`
	Title       string    `json:"title"`
	Status      int64     `json:"status"`
	Description *string   `json:"description"`
	DateCreated time.Time `json:"date_created"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
	ID      uint64 `json:"id"`
}

// AuthenticateResponse describes the caller of a valid token
type AuthenticateResponse struct {
	Admin bool `json:"admin"`
}

// MessageResponse carries a plain message
type MessageResponse struct {
	Message string `json:"message"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Avatar:   user.Avatar,
		GroupID:  user.GroupID,
	}
}

// ToGroupDTO converts a Group model to GroupDTO
func ToGroupDTO(group models.Group) GroupDTO {
	return GroupDTO{
		ID:      group.ID,
		Name:    group.Name,
		AdminID: group.AdminID,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		GroupID:     project.GroupID,
		CreatorID:   project.CreatorID,
		AssignedID:  project.AssignedID,
		Title:       project.Title,
		Status:      project.Status,
		Description: project.Description,
		DateCreated: project.DateCreated,
	}
}

// ToUserDTOs converts a list of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// ToGroupDTOs converts a list of groups
func ToGroupDTOs(groups []models.Group) []GroupDTO {
	out := make([]GroupDTO, len(groups))
	for i, g := range groups {
		out[i] = ToGroupDTO(g)
	}
	return out
}

// ToProjectDTOs converts a list of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}
