package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// EngagementService handles likes and bookmarks. The like repository keeps
// tweets.like_count in step with the likes table.
type EngagementService struct {
	likes      repository.LikeRepository
	bookmarks  repository.BookmarkRepository
	visibility *VisibilityService
}

func NewEngagementService(
	likes repository.LikeRepository,
	bookmarks repository.BookmarkRepository,
	visibility *VisibilityService,
) *EngagementService {
	return &EngagementService{likes: likes, bookmarks: bookmarks, visibility: visibility}
}

func (s *EngagementService) Like(ctx context.Context, userID, tweetID uint) (*models.Like, error) {
	if _, err := s.visibility.Check(ctx, userID, tweetID); err != nil {
		return nil, err
	}
	like := &models.Like{UserID: userID, TweetID: tweetID}
	if err := s.likes.Create(ctx, like); err != nil {
		return nil, err
	}
	return like, nil
}

func (s *EngagementService) Unlike(ctx context.Context, userID, tweetID uint) error {
	deleted, err := s.likes.Delete(ctx, userID, tweetID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return models.NewNotFoundMessage("Like not found")
	}
	return nil
}

func (s *EngagementService) Bookmark(ctx context.Context, userID, tweetID uint) (*models.Bookmark, error) {
	if _, err := s.visibility.Check(ctx, userID, tweetID); err != nil {
		return nil, err
	}
	return s.bookmarks.Upsert(ctx, userID, tweetID)
}

func (s *EngagementService) Unbookmark(ctx context.Context, userID, tweetID uint) error {
	return s.bookmarks.Delete(ctx, userID, tweetID)
}
