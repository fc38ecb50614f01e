package repository

import (
	"context"
	"errors"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLikeRepository_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Like{UserID: 1, TweetID: 2}))
	err := repo.Create(ctx, &models.Like{UserID: 1, TweetID: 2})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	n, err := repo.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLikeRepository_CountFollowsLikeRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "a@x.com", false)
	tw := createTweet(t, db, &models.Tweet{UserID: author.ID, Content: "hi"})

	require.NoError(t, repo.Create(ctx, &models.Like{UserID: author.ID, TweetID: tw.ID}))
	_ = repo.Create(ctx, &models.Like{UserID: author.ID, TweetID: tw.ID})

	stored, err := NewTweetRepository(db).GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.LikeCount)
}

func TestLikeRepository_CounterFailureRollsBackLike(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "a@x.com", false)
	tw := createTweet(t, db, &models.Tweet{UserID: author.ID, Content: "hi"})

	failCounter := true
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_like_count", func(tx *gorm.DB) {
		if failCounter && tx.Statement.Table == "tweets" {
			_ = tx.AddError(errors.New("counter unavailable"))
		}
	}))

	err := repo.Create(ctx, &models.Like{UserID: author.ID, TweetID: tw.ID})
	assert.True(t, models.IsCode(err, models.CodeInternal))

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Where("tweet_id = ?", tw.ID).Count(&likes).Error)
	assert.Zero(t, likes)

	failCounter = false
	require.NoError(t, repo.Create(ctx, &models.Like{UserID: author.ID, TweetID: tw.ID}))

	failCounter = true
	n, err := repo.Delete(ctx, author.ID, tw.ID)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Like{}).Where("tweet_id = ?", tw.ID).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)

	stored, err := NewTweetRepository(db).GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.LikeCount)
}

func TestBookmarkRepository_UpsertReturnsSameRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookmarkRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, repo.Delete(ctx, 1, 2))
	require.NoError(t, repo.Delete(ctx, 1, 2))
}
