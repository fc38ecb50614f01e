package models

import "time"

// RefreshToken is one live refresh session, keyed by its jti.
// Rows with ExpiresAt in the past are never considered live.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	JTI       string    `gorm:"column:jti;size:64;not null;uniqueIndex" json:"jti"`
	IssuedAt  time.Time `gorm:"column:iat;not null" json:"iat"`
	ExpiresAt time.Time `gorm:"column:exp;not null;index" json:"exp"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
