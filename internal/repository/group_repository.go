package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// Create creates a new group
func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// Exists reports whether a group with the ID exists
func (r *GormGroupRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a group. Projects are never cascaded: a group that still
// owns projects is refused with ErrGroupInUse. Members are detached.
func (r *GormGroupRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Select("id").First(&group, id).Error; err != nil {
			return err
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Where("group_id = ?", id).Count(&projects).Error; err != nil {
			return fmt.Errorf("failed to count projects: %w", err)
		}
		if projects > 0 {
			return ErrGroupInUse
		}

		if err := tx.Model(&models.User{}).Where("group_id = ?", id).
			Update("group_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach members: %w", err)
		}

		return tx.Delete(&models.Group{}, id).Error
	})
}
