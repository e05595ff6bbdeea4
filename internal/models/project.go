package models

import (
	"time"
)

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	GroupID     uint64    `gorm:"not null;index" json:"group_id"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	AssignedID  *uint64   `gorm:"index" json:"assigned_id"`
	Title       string    `gorm:"type:varchar(64);not null" json:"title"`
	Status      int64     `gorm:"not null;default:0;index" json:"status"`
	Description *string   `gorm:"type:text" json:"description"`
	DateCreated time.Time `gorm:"autoCreateTime;<-:create" json:"date_created"`
	UpdatedAt   time.Time `json:"-"`
}
