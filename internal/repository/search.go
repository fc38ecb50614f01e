package repository

import (
	"context"
	"fmt"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tweetDocument = "to_tsvector('simple', tweets.content)"
	userDocument  = "to_tsvector('simple', coalesce(users.name, '') || ' ' || coalesce(users.username, ''))"
	searchQuery   = "plainto_tsquery('simple', ?)"
)

// TextMatch narrows tweets to a full-text match on content.
func TextMatch(q string) Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(tweetDocument+" @@ "+searchQuery, q)
	}
}

// TextScore projects ts_rank as text_score and a combined engagement column.
func TextScore(q string) SelectExpr {
	return SelectExpr{
		SQL: "ts_rank(" + tweetDocument + ", " + searchQuery + ") AS text_score, " +
			fmt.Sprintf("(tweets.like_count + (SELECT COUNT(*) FROM tweets e WHERE e.parent_id = tweets.id "+
				"AND e.deleted_at IS NULL AND e.type IN (%d, %d))) AS engagement",
				models.TweetTypeRetweet, models.TweetTypeComment),
		Args: []any{q},
	}
}

// OrderRelevance sorts by text score, then engagement, then recency. Requires TextScore.
func OrderRelevance() Stage {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("text_score DESC").Order("engagement DESC").Order("tweets.created_at DESC")
	}
}

// UserHit is one people-search result.
type UserHit struct {
	models.User
	IsFollowing bool `gorm:"->;-:migration"`
}

// SearchRepository runs full-text queries over users.
type SearchRepository interface {
	SearchUsers(ctx context.Context, q string, viewerID uint, scope []uint, page, limit int) ([]UserHit, int64, error)
}

type searchRepository struct {
	db *gorm.DB
}

// NewSearchRepository returns a new SearchRepository implementation.
func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

// SearchUsers matches name and username. A non-nil scope restricts results to those ids.
func (r *searchRepository) SearchUsers(ctx context.Context, q string, viewerID uint, scope []uint, page, limit int) ([]UserHit, int64, error) {
	defer observability.TrackQuery("search", "users")()

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where(userDocument+" @@ "+searchQuery, q)
		if scope != nil {
			db = AuthoredByUsers(scope)(db)
		}
		return db
	}

	var total int64
	if err := filter(r.db.WithContext(ctx).Model(&models.User{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	hits := []UserHit{}
	if total == 0 {
		return hits, 0, nil
	}

	err := filter(r.db.WithContext(ctx).Model(&models.User{})).
		Select("users.*, EXISTS(SELECT 1 FROM followers f WHERE f.follower_id = ? AND f.following_id = users.id AND f.status = ?) AS is_following",
			viewerID, models.FollowStatusFollowing).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(" + userDocument + ", " + searchQuery + ") DESC, users.id",
			Vars:               []any{q},
			WithoutParentheses: true,
		}}).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&hits).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return hits, total, nil
}

// AuthoredByUsers narrows a users query to ids. An empty set matches nothing.
func AuthoredByUsers(ids []uint) Stage {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("users.id IN ?", ids)
	}
}
