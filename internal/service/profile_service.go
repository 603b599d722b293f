package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

// ErrProfileNotFound indicates the requested profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService exposes the authenticated educator's own profile.
type ProfileService interface {
	Me(ctx context.Context, actor Actor) (dto.ProfileResponse, error)
	UpdateMe(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.ProfileResponse, error)
}

type profileService struct {
	repo     repository.ProfileRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(repo repository.ProfileRepository, validate *validator.Validate, logger zerolog.Logger) ProfileService {
	return &profileService{
		repo:     repo,
		validate: validate,
		logger:   logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Me(ctx context.Context, actor Actor) (dto.ProfileResponse, error) {
	profile, err := s.load(ctx, actor.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) UpdateMe(ctx context.Context, actor Actor, req dto.ProfileUpdateRequest) (dto.ProfileResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}

	profile, err := s.load(ctx, actor.ID)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	if req.FullName != nil {
		profile.FullName = strings.TrimSpace(*req.FullName)
	}

	if err := s.repo.Update(ctx, &profile); err != nil {
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) load(ctx context.Context, id uint) (models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}

	return profile, nil
}
