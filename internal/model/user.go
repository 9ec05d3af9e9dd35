package model

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the `users` table. Email is stored lower-cased and is unique.
// Soft-deleted rows are hidden from every default query through DeletedAt.
type User struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Phone        *string        `gorm:"type:varchar(20)" json:"phone"`
	Region       *string        `gorm:"type:varchar(100)" json:"region"`
	Role         Role           `gorm:"type:varchar(16);not null;index" json:"role"`
	Status       UserStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	LastLoginAt  *time.Time     `json:"lastLoginAt"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Identity is the authenticated principal attached to a request after the
// access token has been verified.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// HasRole reports whether the identity carries one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
