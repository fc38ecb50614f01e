package service

import (
	"context"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/validation"
)

type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	circles repository.CircleRepository
}

// UpdateMeInput is a partial update; nil fields are left untouched.
type UpdateMeInput struct {
	Name       *string    `json:"name" validate:"omitempty,min=1,max=50"`
	Bio        *string    `json:"bio" validate:"omitempty,max=160"`
	Location   *string    `json:"location" validate:"omitempty,max=100"`
	Website    *string    `json:"website" validate:"omitempty,url"`
	Username   *string    `json:"username" validate:"omitempty,username"`
	Avatar     *string    `json:"avatar" validate:"omitempty,max=400"`
	CoverPhoto *string    `json:"cover_photo" validate:"omitempty,max=400"`
	IsPrivate  *bool      `json:"is_private"`
	BirthDate  *time.Time `json:"date_of_birth"`
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository, circles repository.CircleRepository) *UserService {
	return &UserService{users: users, follows: follows, circles: circles}
}

func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateMe(ctx context.Context, userID uint, in UpdateMeInput) (*models.User, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.Location != nil {
		fields["location"] = *in.Location
	}
	if in.Website != nil {
		fields["website"] = *in.Website
	}
	if in.Username != nil {
		fields["username"] = *in.Username
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.CoverPhoto != nil {
		fields["cover_photo"] = *in.CoverPhoto
	}
	if in.IsPrivate != nil {
		fields["is_private"] = *in.IsPrivate
	}
	if in.BirthDate != nil {
		fields["birth_date"] = *in.BirthDate
	}

	if in.Username != nil {
		taken, err := s.users.GetByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if taken != nil && taken.ID != userID {
			return nil, models.NewConflictError("Username already exists")
		}
	}

	if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// GetProfile returns the public profile for username as seen by viewerID (0 for anonymous).
func (s *UserService) GetProfile(ctx context.Context, viewerID uint, username string) (*models.PublicProfile, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}

	profile := user.Profile()
	if viewerID != 0 && viewerID != user.ID {
		following, err := s.follows.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = following
	}
	return &profile, nil
}

func (s *UserService) AddCircleMember(ctx context.Context, ownerID, memberID uint) error {
	if ownerID == memberID {
		return models.NewValidationError("Cannot add yourself to your circle")
	}
	if _, err := s.users.GetByID(ctx, memberID); err != nil {
		return err
	}
	return s.circles.Add(ctx, ownerID, memberID)
}

func (s *UserService) RemoveCircleMember(ctx context.Context, ownerID, memberID uint) error {
	return s.circles.Remove(ctx, ownerID, memberID)
}

func (s *UserService) ListCircle(ctx context.Context, ownerID uint) ([]models.PublicProfile, error) {
	members, err := s.circles.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.PublicProfile, 0, len(members))
	for i := range members {
		profiles = append(profiles, members[i].Profile())
	}
	return profiles, nil
}
