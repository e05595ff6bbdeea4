package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/constants"
	"gorm.io/gorm"
)

var (
	usernameRules = lengthRules(constants.MinUsernameLength, constants.MaxUsernameLength)
	passwordRules = lengthRules(constants.MinPasswordLength, constants.MaxPasswordLength)
	avatarRules   = lengthRules(constants.MinAvatarLength, constants.MaxAvatarLength)
	titleRules    = lengthRules(constants.MinTitleLength, constants.MaxTitleLength)
	nameRules     = lengthRules(constants.MinNameLength, constants.MaxNameLength)
	statusRules   = fmt.Sprintf("min=%d,max=%d", constants.MinProjectStatus, constants.MaxProjectStatus)
	idRules       = "min=1"
)

func lengthRules(lo, hi int) string {
	return fmt.Sprintf("min=%d,max=%d", lo, hi)
}

// notFound maps a missing row to sentinel and wraps anything else.
func notFound(err, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
