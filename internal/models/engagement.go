package models

import "time"

// Like is unique per (user, tweet).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_tweet" json:"user_id"`
	TweetID   uint      `gorm:"not null;uniqueIndex:idx_likes_user_tweet;index" json:"tweet_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark is unique per (user, tweet).
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmarks_user_tweet" json:"user_id"`
	TweetID   uint      `gorm:"not null;uniqueIndex:idx_bookmarks_user_tweet;index" json:"tweet_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Hashtag names are deduplicated.
type Hashtag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"-"`
}
