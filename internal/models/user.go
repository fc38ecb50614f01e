// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Email and username are unique among live rows.
type User struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	Name                string           `gorm:"size:100;not null" json:"name"`
	Email               string           `gorm:"size:255;not null;uniqueIndex:idx_users_email,where:deleted_at IS NULL" json:"email"`
	Password            string           `gorm:"not null" json:"-"`
	BirthDate           time.Time        `json:"birth_date"`
	Bio                 string           `gorm:"size:160" json:"bio"`
	Location            string           `gorm:"size:100" json:"location"`
	Website             string           `gorm:"size:255" json:"website"`
	Username            *string          `gorm:"size:30;uniqueIndex:idx_users_username,where:deleted_at IS NULL" json:"username"`
	Avatar              string           `json:"avatar"`
	CoverPhoto          string           `json:"cover_photo"`
	IsPrivate           bool             `gorm:"not null;default:false" json:"is_private"`
	Verify              UserVerifyStatus `gorm:"type:smallint;not null;default:0" json:"verify"`
	EmailVerifyToken    string           `gorm:"size:64" json:"-"`
	ForgotPasswordToken string           `gorm:"size:64" json:"-"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
}

// UsernameValue returns the username or "" when unset.
func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// UserSummary is the public slice of a user returned by auth endpoints.
type UserSummary struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Summary projects the fields returned alongside tokens.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	Website     string    `json:"website"`
	Avatar      string    `json:"avatar"`
	CoverPhoto  string    `json:"cover_photo"`
	IsPrivate   bool      `json:"is_private"`
	IsFollowing bool      `json:"is_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile projects the public view of u.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.UsernameValue(),
		Bio:        u.Bio,
		Location:   u.Location,
		Website:    u.Website,
		Avatar:     u.Avatar,
		CoverPhoto: u.CoverPhoto,
		IsPrivate:  u.IsPrivate,
		CreatedAt:  u.CreatedAt,
	}
}

// CircleMember grants MemberID reply rights on OwnerID's circle-audience tweets.
type CircleMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_circle_owner_member" json:"owner_id"`
	MemberID  uint      `gorm:"not null;uniqueIndex:idx_circle_owner_member;index" json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CircleMember) TableName() string {
	return "circle_members"
}
