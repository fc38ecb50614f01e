package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// Audit is the outcome of a visibility check, reused when the tweet is enriched.
type Audit struct {
	Tweet       *models.Tweet
	Author      *models.User
	IsFollowing bool
	CanReply    bool
}

// VisibilityService decides whether a viewer may see a tweet and reply to it.
type VisibilityService struct {
	tweets  repository.TweetRepository
	users   repository.UserRepository
	follows repository.FollowRepository
	circles repository.CircleRepository
}

func NewVisibilityService(
	tweets repository.TweetRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	circles repository.CircleRepository,
) *VisibilityService {
	return &VisibilityService{tweets: tweets, users: users, follows: follows, circles: circles}
}

// Check evaluates viewerID (0 for anonymous) against tweetID.
func (s *VisibilityService) Check(ctx context.Context, viewerID, tweetID uint) (*Audit, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, tweet.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage("Tweet not found")
		}
		return nil, err
	}

	self := viewerID != 0 && viewerID == author.ID
	following := false
	if viewerID != 0 && !self {
		following, err = s.follows.IsFollowing(ctx, viewerID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	if author.IsPrivate && !self {
		if viewerID == 0 {
			return nil, models.NewForbiddenError("This account is private. Login to view.")
		}
		if !following {
			return nil, models.NewForbiddenError("You must be a follower to view this private tweet.")
		}
	}

	canReply, err := s.canReply(ctx, tweet, viewerID, following)
	if err != nil {
		return nil, err
	}
	return &Audit{Tweet: tweet, Author: author, IsFollowing: following, CanReply: canReply}, nil
}

// canReply follows the audience alone. The author gets no exemption, so a
// Followers or Circle tweet is not repliable by its own author.
func (s *VisibilityService) canReply(ctx context.Context, tweet *models.Tweet, viewerID uint, following bool) (bool, error) {
	switch tweet.Audience {
	case models.AudienceEveryone:
		return true, nil
	case models.AudienceFollowers:
		return viewerID != 0 && following, nil
	case models.AudienceCircle:
		if viewerID == 0 {
			return false, nil
		}
		return s.circles.IsMember(ctx, tweet.UserID, viewerID)
	default:
		return false, nil
	}
}
