package models

import (
	"time"

	"gorm.io/gorm"
)

// Media is an attachment stored inline on the tweet row.
type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// Tweet represents a root tweet or one of its child kinds (retweet, comment, quote).
type Tweet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Type      TweetType      `gorm:"type:smallint;not null;index:idx_tweets_parent_type,priority:2" json:"type"`
	Audience  TweetAudience  `gorm:"type:smallint;not null" json:"audience"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	ParentID  *uint          `gorm:"index:idx_tweets_parent_type,priority:1" json:"parent_id"`
	Medias    []Media        `gorm:"serializer:json;type:text" json:"medias"`
	Views     int64          `gorm:"not null;default:0" json:"views"`
	LikeCount int64          `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Computed at query time, never persisted.
	ReTweetCount              int64   `gorm:"->;-:migration" json:"re_tweet_count"`
	CommentCount              int64   `gorm:"->;-:migration" json:"comment_count"`
	QuoteCount                int64   `gorm:"->;-:migration" json:"quote_count"`
	Bookmarks                 int64   `gorm:"->;-:migration" json:"bookmarks"`
	IsLikedByCurrentUser      bool    `gorm:"->;-:migration" json:"is_liked_by_current_user"`
	IsBookmarkedByCurrentUser bool    `gorm:"->;-:migration" json:"is_bookmarked_by_current_user"`
	TextScore                 float64 `gorm:"->;-:migration" json:"-"`

	// Resolved by the aggregation step.
	Hashtags []HashtagRef `gorm:"-" json:"hashtags"`
	Mentions []Mention    `gorm:"-" json:"mentions"`
	CanReply *CanReply    `gorm:"-" json:"can_reply"`
}

// HashtagRef is a hashtag as embedded in a tweet view.
type HashtagRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Mention is a mentioned user stripped to non-sensitive fields.
type Mention struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CanReply is present when the viewer may reply to the tweet.
type CanReply struct {
	ID uint `json:"id"`
}

// TweetHashtag links a tweet to a hashtag.
type TweetHashtag struct {
	TweetID   uint `gorm:"primaryKey"`
	HashtagID uint `gorm:"primaryKey;index"`
}

// TweetMention links a tweet to a mentioned user.
type TweetMention struct {
	TweetID uint `gorm:"primaryKey"`
	UserID  uint `gorm:"primaryKey;index"`
}

// TweetPage is a page of enriched tweets plus the unpaged total.
type TweetPage struct {
	Tweets []*Tweet `json:"tweets"`
	Total  int64    `json:"total"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
}
