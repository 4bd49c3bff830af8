package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null"`
	Phone        string `gorm:"uniqueIndex;not null"`
	Role         string `gorm:"default:'user'"`
	Status       string `gorm:"default:'active'"`
	LastLoginAt  *time.Time
	TokenVersion int `gorm:"default:1"`
}
