package auth

import (
	"errors"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// ErrForbidden is returned by every predicate that denies access.
var ErrForbidden = errors.New("insufficient permissions")

// Identity is the caller resolved from a verified token.
type Identity struct {
	ID      uint64
	IsAdmin bool
	GroupID *uint64
}

// IdentityOf builds the identity of a stored user.
func IdentityOf(user *models.User) Identity {
	return Identity{
		ID:      user.ID,
		IsAdmin: user.IsAdmin,
		GroupID: user.GroupID,
	}
}

// InGroup reports whether the identity belongs to groupID.
func (i Identity) InGroup(groupID uint64) bool {
	return i.GroupID != nil && *i.GroupID == groupID
}

// RequireAdmin allows administrators only.
func RequireAdmin(id Identity) error {
	if id.IsAdmin {
		return nil
	}
	return ErrForbidden
}

// OwnerOrAdmin allows the user itself or an administrator.
func OwnerOrAdmin(id Identity, userID uint64) error {
	if id.IsAdmin || id.ID == userID {
		return nil
	}
	return ErrForbidden
}

// GroupMemberOrAdmin allows members of the project's group or an
// administrator. The project must already be known to exist.
func GroupMemberOrAdmin(id Identity, project *models.Project) error {
	if id.IsAdmin || id.InGroup(project.GroupID) {
		return nil
	}
	return ErrForbidden
}

// MemberOfOrAdmin allows members of groupID or an administrator.
func MemberOfOrAdmin(id Identity, groupID uint64) error {
	if id.IsAdmin || id.InGroup(groupID) {
		return nil
	}
	return ErrForbidden
}
