package service

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementService_LikeLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "liked@example.com", false)
	fan := f.createUser(t, "liker@example.com", false)
	tw := f.post(t, author.ID, CreateTweetInput{Content: "like me"})

	_, err := f.engagement.Like(ctx, fan.ID, tw.ID)
	require.NoError(t, err)

	_, err = f.engagement.Like(ctx, fan.ID, tw.ID)
	assertAppCode(t, err, models.CodeConflict)

	got, err := f.tweets.Get(ctx, fan.ID, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
	assert.True(t, got.IsLikedByCurrentUser)

	require.NoError(t, f.engagement.Unlike(ctx, fan.ID, tw.ID))
	assertAppCode(t, f.engagement.Unlike(ctx, fan.ID, tw.ID), models.CodeNotFound)

	stored, err := f.tweetsRepo.GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.LikeCount)
}

func TestEngagementService_LikeMissingTweet(t *testing.T) {
	f := newFixture(t)
	fan := f.createUser(t, "lonely@example.com", false)

	_, err := f.engagement.Like(context.Background(), fan.ID, 404)
	assertAppCode(t, err, models.CodeNotFound)
}

func TestEngagementService_BookmarkIsUpsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "saved@example.com", false)
	reader := f.createUser(t, "saver@example.com", false)
	tw := f.post(t, author.ID, CreateTweetInput{Content: "keep"})

	first, err := f.engagement.Bookmark(ctx, reader.ID, tw.ID)
	require.NoError(t, err)
	second, err := f.engagement.Bookmark(ctx, reader.ID, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, f.engagement.Unbookmark(ctx, reader.ID, tw.ID))
	require.NoError(t, f.engagement.Unbookmark(ctx, reader.ID, tw.ID))
}

func TestEngagementService_PrivateTweetNeedsFollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "hidden@example.com", true)
	outsider := f.createUser(t, "peeker@example.com", false)
	tw := f.post(t, author.ID, CreateTweetInput{Content: "psst"})

	_, err := f.engagement.Like(ctx, outsider.ID, tw.ID)
	assertAppCode(t, err, models.CodeForbidden)
	_, err = f.engagement.Bookmark(ctx, outsider.ID, tw.ID)
	assertAppCode(t, err, models.CodeForbidden)
}
