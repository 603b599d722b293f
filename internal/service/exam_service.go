package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/schema"
)

var (
	// ErrExamNotFound indicates the requested exam does not exist.
	ErrExamNotFound = errors.New("exam not found")
	// ErrExamHasSubmissions blocks deleting an exam that already received work.
	ErrExamHasSubmissions = errors.New("exam has submissions and cannot be deleted")
	// ErrInvalidRubric indicates the rubric failed semantic validation.
	ErrInvalidRubric = errors.New("invalid rubric")
)

// rubric point sums tolerate float accumulation error up to this bound.
const rubricPointsTolerance = 0.001

// ExamService defines exam and rubric management behaviour.
type ExamService interface {
	List(ctx context.Context, actor Actor, status *string) ([]dto.ExamResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ExamResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ExamCreateRequest) (dto.ExamResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ExamUpdateRequest) (dto.ExamResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type examService struct {
	repo     repository.ExamRepository
	guard    *AccessGuard
	audit    AuditRecorder
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExamService constructs the exam service.
func NewExamService(repo repository.ExamRepository, guard *AccessGuard, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) ExamService {
	return &examService{
		repo:     repo,
		guard:    guard,
		audit:    audit,
		validate: validate,
		logger:   logger.With().Str("component", "exam_service").Logger(),
		now:      time.Now,
	}
}

func (s *examService) List(ctx context.Context, actor Actor, status *string) ([]dto.ExamResponse, error) {
	filter := repository.ExamFilter{EducatorID: &actor.ID, Status: status}
	if actor.SchoolID != nil {
		filter.SchoolID = actor.SchoolID
	}

	exams, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		rubric, err := schema.DecodeRubric(exam.Rubric)
		if err != nil {
			s.logger.Error().Err(err).Uint("exam_id", exam.ID).Msg("stored rubric failed to decode")
			return nil, fmt.Errorf("decode rubric for exam %d: %w", exam.ID, err)
		}
		responses = append(responses, dto.NewExamResponse(exam, rubric))
	}

	return responses, nil
}

func (s *examService) Get(ctx context.Context, actor Actor, id uint) (dto.ExamResponse, error) {
	exam, err := s.getOwned(ctx, actor, id, "exam.view")
	if err != nil {
		return dto.ExamResponse{}, err
	}

	rubric, err := schema.DecodeRubric(exam.Rubric)
	if err != nil {
		return dto.ExamResponse{}, fmt.Errorf("decode rubric: %w", err)
	}

	return dto.NewExamResponse(exam, rubric), nil
}

func (s *examService) Create(ctx context.Context, actor Actor, req dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ExamResponse{}, err
	}

	rubric := req.Rubric.ToModel()
	if err := validateRubric(rubric); err != nil {
		return dto.ExamResponse{}, err
	}

	encoded, err := schema.EncodeRubric(rubric)
	if err != nil {
		return dto.ExamResponse{}, fmt.Errorf("encode rubric: %w", err)
	}

	exam := models.Exam{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      models.ExamStatusDraft,
		Rubric:      encoded,
		EducatorID:  actor.ID,
		SchoolID:    actor.SchoolID,
	}

	if err := s.repo.Create(ctx, &exam); err != nil {
		s.logger.Error().Err(err).Msg("failed to create exam")
		return dto.ExamResponse{}, err
	}

	s.recordAudit(ctx, actor, "exam.created", exam.ID, nil)
	s.logger.Info().Uint("exam_id", exam.ID).Uint("educator_id", actor.ID).Msg("exam created")

	return dto.NewExamResponse(exam, rubric), nil
}

func (s *examService) Update(ctx context.Context, actor Actor, id uint, req dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.getOwned(ctx, actor, id, "exam.update")
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Status != nil {
		exam.Status = *req.Status
	}

	rubric, err := schema.DecodeRubric(exam.Rubric)
	if err != nil {
		return dto.ExamResponse{}, fmt.Errorf("decode rubric: %w", err)
	}

	if req.Rubric != nil {
		rubric = req.Rubric.ToModel()
		if err := validateRubric(rubric); err != nil {
			return dto.ExamResponse{}, err
		}

		encoded, err := schema.EncodeRubric(rubric)
		if err != nil {
			return dto.ExamResponse{}, fmt.Errorf("encode rubric: %w", err)
		}
		exam.Rubric = encoded
	}

	if err := s.repo.Update(ctx, &exam); err != nil {
		s.logger.Error().Err(err).Uint("exam_id", id).Msg("failed to update exam")
		return dto.ExamResponse{}, err
	}

	s.recordAudit(ctx, actor, "exam.updated", exam.ID, nil)

	return dto.NewExamResponse(exam, rubric), nil
}

func (s *examService) Delete(ctx context.Context, actor Actor, id uint) error {
	exam, err := s.getOwned(ctx, actor, id, "exam.delete")
	if err != nil {
		return err
	}

	count, err := s.repo.CountSubmissions(ctx, exam.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d submissions exist", ErrExamHasSubmissions, count)
	}

	if err := s.repo.Delete(ctx, exam.ID); err != nil {
		s.logger.Error().Err(err).Uint("exam_id", id).Msg("failed to delete exam")
		return err
	}

	s.recordAudit(ctx, actor, "exam.deleted", exam.ID, map[string]interface{}{"title": exam.Title})
	s.logger.Info().Uint("exam_id", id).Msg("exam deleted")

	return nil
}

// getOwned loads the exam and enforces ownership for the given operation.
func (s *examService) getOwned(ctx context.Context, actor Actor, id uint, action string) (models.Exam, error) {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}

	decision := CheckExamView(ExamAccessContext{Actor: actor, ExamEducatorID: exam.EducatorID, ExamSchoolID: exam.SchoolID})
	examID := exam.ID
	if err := s.guard.Enforce(ctx, actor, decision, action, "exam", &examID); err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (s *examService) recordAudit(ctx context.Context, actor Actor, action string, examID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	id := examID
	if err := s.audit.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     action,
		EntityType: "exam",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}

// validateRubric enforces semantic rules the struct tags cannot express:
// unique question numbers, positive per-question points, and a total that
// matches the question sum.
func validateRubric(rubric models.Rubric) error {
	if len(rubric.Questions) == 0 {
		return fmt.Errorf("%w: rubric must contain at least one question", ErrInvalidRubric)
	}

	seen := make(map[string]struct{}, len(rubric.Questions))
	var sum float64
	for _, question := range rubric.Questions {
		number := strings.TrimSpace(question.Number)
		if number == "" {
			return fmt.Errorf("%w: question number is required", ErrInvalidRubric)
		}
		if _, dup := seen[number]; dup {
			return fmt.Errorf("%w: duplicate question number %q", ErrInvalidRubric, number)
		}
		seen[number] = struct{}{}

		if question.MaxPoints <= 0 {
			return fmt.Errorf("%w: question %q must have positive max points", ErrInvalidRubric, number)
		}
		sum += question.MaxPoints
	}

	if math.Abs(sum-rubric.TotalPoints) > rubricPointsTolerance {
		return fmt.Errorf("%w: total points %.2f does not match question sum %.2f", ErrInvalidRubric, rubric.TotalPoints, sum)
	}

	return nil
}
