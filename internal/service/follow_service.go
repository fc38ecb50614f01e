package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository) *FollowService {
	return &FollowService{users: users, follows: follows}
}

// Follow creates the edge followerID -> targetID if it does not exist and returns its status.
// Following a private account yields a pending request.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (models.FollowStatus, error) {
	if followerID == targetID {
		return 0, models.NewForbiddenError("Cannot follow yourself")
	}

	existing, err := s.follows.Get(ctx, followerID, targetID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.Status, nil
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return 0, err
	}

	status := models.FollowStatusFollowing
	if target.IsPrivate {
		status = models.FollowStatusRequested
	}
	stored, err := s.follows.Create(ctx, &models.Follower{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      status,
	})
	if err != nil {
		return 0, err
	}
	return stored.Status, nil
}

// Unfollow removes the edge; removing a missing edge is not an error.
// A self edge can never exist, so unfollowing yourself is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return nil
	}
	_, err := s.follows.Delete(ctx, followerID, targetID)
	return err
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	if followerID == 0 || followerID == targetID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, followerID, targetID)
}

func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.follows.FollowingIDs(ctx, userID)
}
