package repository

import (
	"fmt"
	"strings"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// Stage is one composable step of a tweet query. Filter stages narrow the row set and are
// shared by the page query and its count; projection and ordering stages only shape the page.
type Stage func(db *gorm.DB) *gorm.DB

// TweetQuery is an ordered pipeline of stages.
type TweetQuery struct {
	Filters []Stage
	Project []Stage
	Order   []Stage
	Page    int
	Limit   int
}

var tweetCountsSelect = fmt.Sprintf("tweets.*, "+
	"(SELECT COUNT(*) FROM tweets c WHERE c.parent_id = tweets.id AND c.type = %d AND c.deleted_at IS NULL) AS re_tweet_count, "+
	"(SELECT COUNT(*) FROM tweets c WHERE c.parent_id = tweets.id AND c.type = %d AND c.deleted_at IS NULL) AS comment_count, "+
	"(SELECT COUNT(*) FROM tweets c WHERE c.parent_id = tweets.id AND c.type = %d AND c.deleted_at IS NULL) AS quote_count, "+
	"(SELECT COUNT(*) FROM bookmarks b WHERE b.tweet_id = tweets.id) AS bookmarks",
	models.TweetTypeRetweet, models.TweetTypeComment, models.TweetTypeQuoteTweet)

// SelectExpr is an extra projected column with its bind arguments.
type SelectExpr struct {
	SQL  string
	Args []any
}

// WithEngagement projects the child counts, bookmark count and the viewer's like/bookmark flags.
func WithEngagement(viewerID uint, extras ...SelectExpr) Stage {
	return func(db *gorm.DB) *gorm.DB {
		parts := []string{tweetCountsSelect}
		var args []any
		if viewerID == 0 {
			parts = append(parts, "false AS is_liked_by_current_user", "false AS is_bookmarked_by_current_user")
		} else {
			parts = append(parts,
				"EXISTS(SELECT 1 FROM likes l WHERE l.tweet_id = tweets.id AND l.user_id = ?) AS is_liked_by_current_user",
				"EXISTS(SELECT 1 FROM bookmarks bm WHERE bm.tweet_id = tweets.id AND bm.user_id = ?) AS is_bookmarked_by_current_user")
			args = append(args, viewerID, viewerID)
		}
		for _, e := range extras {
			parts = append(parts, e.SQL)
			args = append(args, e.Args...)
		}
		return db.Select(strings.Join(parts, ", "), args...)
	}
}

// ByID narrows to a single tweet.
func ByID(id uint) Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tweets.id = ?", id)
	}
}

// ChildrenOf narrows to direct children of parentID with the given type.
func ChildrenOf(parentID uint, typ models.TweetType) Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tweets.parent_id = ? AND tweets.type = ?", parentID, typ)
	}
}

// OfType narrows to a single tweet type.
func OfType(typ models.TweetType) Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tweets.type = ?", typ)
	}
}

// AuthoredBy narrows to tweets written by any of ids. An empty set matches nothing.
func AuthoredBy(ids []uint) Stage {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("tweets.user_id IN ?", ids)
	}
}

// VisibleTo hides tweets by private authors unless the viewer is the author or follows them.
func VisibleTo(viewerID uint) Stage {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return db.Where("tweets.user_id IN (SELECT u.id FROM users u WHERE u.is_private = ? AND u.deleted_at IS NULL)", false)
		}
		return db.Where(
			"tweets.user_id = ? OR tweets.user_id IN (SELECT u.id FROM users u WHERE u.is_private = ? AND u.deleted_at IS NULL) "+
				"OR EXISTS(SELECT 1 FROM followers f WHERE f.follower_id = ? AND f.following_id = tweets.user_id AND f.status = ?)",
			viewerID, false, viewerID, models.FollowStatusFollowing)
	}
}

// HasMedia narrows to tweets carrying at least one media item.
func HasMedia() Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tweets.medias IS NOT NULL AND tweets.medias <> '' AND tweets.medias <> '[]' AND tweets.medias <> 'null'")
	}
}

// BookmarkedBy narrows to tweets bookmarked by userID.
func BookmarkedBy(userID uint) Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN bookmarks ub ON ub.tweet_id = tweets.id AND ub.user_id = ?", userID)
	}
}

// OrderNewest sorts by creation time, newest first.
func OrderNewest() Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("tweets.created_at DESC").Order("tweets.id DESC")
	}
}

// OrderBookmarkedNewest sorts by bookmark time; requires BookmarkedBy.
func OrderBookmarkedNewest() Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("ub.created_at DESC").Order("tweets.id DESC")
	}
}

// Paginate applies LIMIT/OFFSET for a 1-based page.
func Paginate(page, limit int) Stage {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

func apply(db *gorm.DB, stages ...[]Stage) *gorm.DB {
	for _, group := range stages {
		for _, s := range group {
			db = s(db)
		}
	}
	return db
}
