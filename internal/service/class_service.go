package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

// ErrClassNotFound indicates the requested class does not exist.
var ErrClassNotFound = errors.New("class not found")

// ClassService manages educator class rosters.
type ClassService interface {
	List(ctx context.Context, actor Actor) ([]dto.ClassResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ClassResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ClassCreateRequest) (dto.ClassResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ClassUpdateRequest) (dto.ClassResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type classService struct {
	repo     repository.ClassRepository
	guard    *AccessGuard
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo repository.ClassRepository, guard *AccessGuard, validate *validator.Validate, logger zerolog.Logger) ClassService {
	return &classService{
		repo:     repo,
		guard:    guard,
		validate: validate,
		logger:   logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) List(ctx context.Context, actor Actor) ([]dto.ClassResponse, error) {
	classes, err := s.repo.ListByEducator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Get(ctx context.Context, actor Actor, id uint) (dto.ClassResponse, error) {
	class, err := s.getOwned(ctx, actor, id, "class.view")
	if err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Create(ctx context.Context, actor Actor, req dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	roster, err := encodeRoster(req.Roster)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Name:       strings.TrimSpace(req.Name),
		Subject:    strings.TrimSpace(req.Subject),
		GradeLevel: strings.TrimSpace(req.GradeLevel),
		EducatorID: actor.ID,
		SchoolID:   actor.SchoolID,
		Roster:     roster,
	}

	if err := s.repo.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("educator_id", actor.ID).Msg("class created")

	return dto.NewClassResponse(class), nil
}

func (s *classService) Update(ctx context.Context, actor Actor, id uint, req dto.ClassUpdateRequest) (dto.ClassResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.getOwned(ctx, actor, id, "class.update")
	if err != nil {
		return dto.ClassResponse{}, err
	}

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Subject != nil {
		class.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.GradeLevel != nil {
		class.GradeLevel = strings.TrimSpace(*req.GradeLevel)
	}
	if req.Roster != nil {
		roster, err := encodeRoster(*req.Roster)
		if err != nil {
			return dto.ClassResponse{}, err
		}
		class.Roster = roster
	}

	if err := s.repo.Update(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, actor Actor, id uint) error {
	class, err := s.getOwned(ctx, actor, id, "class.delete")
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, class.ID)
}

func (s *classService) getOwned(ctx context.Context, actor Actor, id uint, action string) (models.Class, error) {
	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}

	decision := checkOwnership(actor, class.EducatorID, class.SchoolID)
	classID := class.ID
	if err := s.guard.Enforce(ctx, actor, decision, action, "class", &classID); err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func encodeRoster(roster []string) ([]byte, error) {
	if roster == nil {
		roster = []string{}
	}

	cleaned := make([]string, 0, len(roster))
	for _, student := range roster {
		student = strings.TrimSpace(student)
		if student != "" {
			cleaned = append(cleaned, student)
		}
	}

	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}

	return encoded, nil
}
