package models

import (
	"time"
)

type User struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin   bool      `gorm:"column:isadmin;not null;default:false" json:"isadmin"`
	Avatar    *string   `gorm:"type:varchar(255)" json:"avatar"`
	GroupID   *uint64   `gorm:"index" json:"group_id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
