package service

import (
	"context"
	"strings"

	"freebies/internal/models"
	"freebies/internal/repository"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	scores     *ScoreService
}

// UpdateProfileInput carries optional profile fields; nil leaves a field unchanged.
type UpdateProfileInput struct {
	UserID            uint
	DisplayName       *string
	Bio               *string
	ProfilePictureURL *string
	Latitude          *float64
	Longitude         *float64
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, scores *ScoreService) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, scores: scores}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(ctx, err, "User", id, "load user")
	}
	return user, nil
}

// GetProfile returns a user with freshly computed stats and level.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

// LookupByUsername returns the profile of username.
func (s *UserService) LookupByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("username is required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, storeError(ctx, err, "User", username, "load user")
	}
	return s.profile(ctx, user)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.UserProfile, error) {
	user, err := s.GetUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxDisplayNameLen = 50

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len(name) > maxDisplayNameLen {
			return nil, models.NewValidationError("Display name too long (max 50 characters)")
		}
		user.DisplayName = name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.ProfilePictureURL != nil {
		user.ProfilePictureURL = *in.ProfilePictureURL
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, models.NewValidationError("latitude and longitude must be set together")
	}
	if in.Latitude != nil {
		if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, err
		}
		user.Latitude = in.Latitude
		user.Longitude = in.Longitude
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeError(ctx, err, "User", in.UserID, "update profile")
	}
	return s.profile(ctx, user)
}

func (s *UserService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, storeError(ctx, err, "Follow", userID, "list followers")
	}
	return users, nil
}

func (s *UserService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, storeError(ctx, err, "Follow", userID, "list following")
	}
	return users, nil
}

func (s *UserService) profile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	stats, err := s.scores.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{
		User:      user,
		Stats:     stats,
		LevelInfo: LevelFor(stats.Total()),
	}, nil
}
