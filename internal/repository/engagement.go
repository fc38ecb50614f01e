package repository

import (
	"context"
	"errors"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores likes, unique per (user, tweet).
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID, tweetID uint) (int64, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(like).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Tweet already liked")
			}
			return err
		}
		return adjustLikeCount(tx, like.TweetID, 1)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, "user_id", like.UserID, "tweet_id", like.TweetID)
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, tweetID uint) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND tweet_id = ?", userID, tweetID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return adjustLikeCount(tx, tweetID, -1)
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return deleted, nil
}

// adjustLikeCount moves the denormalized counter inside the caller's transaction.
func adjustLikeCount(tx *gorm.DB, tweetID uint, delta int) error {
	return tx.Model(&models.Tweet{}).
		Where("id = ?", tweetID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

// BookmarkRepository stores bookmarks, unique per (user, tweet).
type BookmarkRepository interface {
	// Upsert returns the existing or newly created bookmark.
	Upsert(ctx context.Context, userID, tweetID uint) (*models.Bookmark, error)
	Delete(ctx context.Context, userID, tweetID uint) error
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository returns a new BookmarkRepository implementation.
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Upsert(ctx context.Context, userID, tweetID uint) (*models.Bookmark, error) {
	bm := models.Bookmark{UserID: userID, TweetID: tweetID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "tweet_id"}},
			DoNothing: true,
		}).
		Create(&bm).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var stored models.Bookmark
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Bookmark not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &stored, nil
}

func (r *bookmarkRepository) Delete(ctx context.Context, userID, tweetID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(&models.Bookmark{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
