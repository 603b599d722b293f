package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/pkg/ai"
)

// ErrLessonPlanNotFound indicates the requested lesson plan does not exist.
var ErrLessonPlanNotFound = errors.New("lesson plan not found")

// LessonPlanService manages AI-composed lesson drafts.
type LessonPlanService interface {
	Generate(ctx context.Context, actor Actor, req dto.LessonPlanGenerateRequest) (dto.LessonPlanResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.LessonPlanResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.LessonPlanResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.LessonPlanUpdateRequest) (dto.LessonPlanResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type lessonPlanService struct {
	repo      repository.LessonPlanRepository
	composer  ai.Grader
	guard     *AccessGuard
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewLessonPlanService constructs the lesson plan service.
func NewLessonPlanService(repo repository.LessonPlanRepository, composer ai.Grader, guard *AccessGuard, validate *validator.Validate, logger zerolog.Logger) LessonPlanService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	return &lessonPlanService{
		repo:      repo,
		composer:  composer,
		guard:     guard,
		validate:  validate,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "lesson_plan_service").Logger(),
		now:       time.Now,
	}
}

func (s *lessonPlanService) Generate(ctx context.Context, actor Actor, req dto.LessonPlanGenerateRequest) (dto.LessonPlanResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	output, err := s.composer.ComposeLesson(ctx, ai.LessonInput{
		Topic:      strings.TrimSpace(req.Topic),
		Subject:    strings.TrimSpace(req.Subject),
		GradeLevel: strings.TrimSpace(req.GradeLevel),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("topic", req.Topic).Msg("lesson composition failed")
		return dto.LessonPlanResponse{}, err
	}

	plan := models.LessonPlan{
		EducatorID: actor.ID,
		Topic:      strings.TrimSpace(req.Topic),
		Subject:    strings.TrimSpace(req.Subject),
		GradeLevel: strings.TrimSpace(req.GradeLevel),
		Content:    strings.TrimSpace(s.sanitizer.Sanitize(output.Content)),
		Status:     models.LessonPlanStatusDraft,
	}

	if err := s.repo.Create(ctx, &plan); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	s.logger.Info().Uint("lesson_plan_id", plan.ID).Uint("educator_id", actor.ID).Msg("lesson plan generated")

	return dto.NewLessonPlanResponse(plan), nil
}

func (s *lessonPlanService) List(ctx context.Context, actor Actor) ([]dto.LessonPlanResponse, error) {
	plans, err := s.repo.ListByEducator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonPlanResponseSlice(plans), nil
}

func (s *lessonPlanService) Get(ctx context.Context, actor Actor, id uint) (dto.LessonPlanResponse, error) {
	plan, err := s.getOwned(ctx, actor, id, "lesson_plan.view")
	if err != nil {
		return dto.LessonPlanResponse{}, err
	}

	return dto.NewLessonPlanResponse(plan), nil
}

func (s *lessonPlanService) Update(ctx context.Context, actor Actor, id uint, req dto.LessonPlanUpdateRequest) (dto.LessonPlanResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	plan, err := s.getOwned(ctx, actor, id, "lesson_plan.update")
	if err != nil {
		return dto.LessonPlanResponse{}, err
	}

	if req.Content != nil {
		plan.Content = strings.TrimSpace(s.sanitizer.Sanitize(*req.Content))
	}
	if req.Status != nil {
		plan.Status = *req.Status
	}

	if err := s.repo.Update(ctx, &plan); err != nil {
		return dto.LessonPlanResponse{}, err
	}

	return dto.NewLessonPlanResponse(plan), nil
}

func (s *lessonPlanService) Delete(ctx context.Context, actor Actor, id uint) error {
	plan, err := s.getOwned(ctx, actor, id, "lesson_plan.delete")
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, plan.ID)
}

func (s *lessonPlanService) getOwned(ctx context.Context, actor Actor, id uint, action string) (models.LessonPlan, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LessonPlan{}, ErrLessonPlanNotFound
		}
		return models.LessonPlan{}, err
	}

	decision := checkOwnership(actor, plan.EducatorID, nil)
	planID := plan.ID
	if err := s.guard.Enforce(ctx, actor, decision, action, "lesson_plan", &planID); err != nil {
		return models.LessonPlan{}, err
	}

	return plan, nil
}
