package models

import "time"

// Follower is a directed edge: FollowerID follows FollowingID.
type Follower struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FollowerID  uint         `gorm:"not null;uniqueIndex:idx_followers_pair" json:"follower_id"`
	FollowingID uint         `gorm:"not null;uniqueIndex:idx_followers_pair;index:idx_followers_following" json:"following_id"`
	Status      FollowStatus `gorm:"type:smallint;not null" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Follower) TableName() string {
	return "followers"
}
