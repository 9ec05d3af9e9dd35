package model

import "time"

// Session models one outstanding refresh grant in the `refresh_tokens`
// table. Only the SHA-256 digest of the token is stored. Rows are never
// deleted; revocation is terminal.
type Session struct {
	ID        string     `gorm:"type:varchar(36);primaryKey"`
	UserID    string     `gorm:"type:varchar(36);not null;index"`
	TokenHash string     `gorm:"type:char(64);not null;uniqueIndex"`
	UserAgent *string    `gorm:"type:varchar(512)"`
	IP        *string    `gorm:"type:varchar(64)"`
	IssuedAt  time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	Revoked   bool       `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (Session) TableName() string { return "refresh_tokens" }

// Usable reports whether the session may still be exchanged at now.
func (s Session) Usable(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
