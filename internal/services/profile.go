package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/normalization"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/types"
)

const profileImagePrefix = "profile_images"

// ProfileInput carries the editable profile fields. Nil fields are left as is.
type ProfileInput struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

type ProfileService interface {
	GetProfile(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error)
	UploadImage(ctx context.Context, r io.Reader) (*types.User, error)
}

type profileService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	imageService ImageService
}

func NewProfileService(log *logger.Logger, userRepo repos.UserRepo, imageService ImageService) ProfileService {
	return &profileService{
		log:          log.With("service", "ProfileService"),
		userRepo:     userRepo,
		imageService: imageService,
	}
}

func (ps *profileService) GetProfile(ctx context.Context) (*types.User, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	users, err := ps.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		ps.log.Warn("Authenticated user no longer exists", "userID", userID)
		return nil, errordata.ErrUnauthorized
	}
	return users[0], nil
}

func (ps *profileService) UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error) {
	user, err := ps.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		first := normalization.ParseInputString(*in.FirstName)
		if first == "" {
			return nil, errordata.NewValidation("first_name", "first name must not be empty")
		}
		user.FirstName = first
	}
	if in.LastName != nil {
		last := normalization.ParseInputString(*in.LastName)
		if last == "" {
			return nil, errordata.NewValidation("last_name", "last name must not be empty")
		}
		user.LastName = last
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = normalization.ParseInputStringPtr(in.PhoneNumber)
	}
	if err := ps.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	ps.log.Info("Profile updated", "userID", user.ID)
	return user, nil
}

// UploadImage stores a new profile image and drops the previous one.
func (ps *profileService) UploadImage(ctx context.Context, r io.Reader) (*types.User, error) {
	user, err := ps.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if ps.imageService == nil {
		return nil, fmt.Errorf("image uploads are not configured")
	}
	key, url, err := ps.imageService.Upload(ctx, profileImagePrefix, r)
	if err != nil {
		return nil, err
	}
	oldKey := user.ImageBucketKey
	user.ImageBucketKey = key
	user.ImageURL = url
	if err := ps.userRepo.Update(ctx, nil, user); err != nil {
		ps.imageService.Delete(ctx, key)
		return nil, fmt.Errorf("failed to save profile image: %w", err)
	}
	ps.imageService.Delete(ctx, oldKey)
	return user, nil
}

// requestUserID returns the authenticated user of the request.
func requestUserID(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errordata.ErrUnauthorized
	}
	return rd.UserID, nil
}
