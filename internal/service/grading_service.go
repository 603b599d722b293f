package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/observability"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/schema"
	"github.com/educasol/educasol-api/pkg/ai"
)

var (
	// ErrResultNotFound indicates no grading result exists for the submission.
	ErrResultNotFound = errors.New("grading result not found")
	// ErrSubmissionNotGradable blocks analysis of submissions already in flight or graded.
	ErrSubmissionNotGradable = errors.New("submission is not in a gradable state")
	// ErrUnknownQuestion indicates an override referenced a question the rubric lacks.
	ErrUnknownQuestion = errors.New("question not found in grading result")
	// ErrScoreOutOfRange indicates an override score above the question maximum.
	ErrScoreOutOfRange = errors.New("override score exceeds question maximum")
)

// GradingService runs AI analysis on submissions and applies teacher overrides.
type GradingService interface {
	Analyze(ctx context.Context, actor Actor, submissionID uint) (dto.GradingResultResponse, error)
	GetResult(ctx context.Context, actor Actor, submissionID uint) (dto.GradingResultResponse, error)
	ApplyOverride(ctx context.Context, actor Actor, submissionID uint, req dto.OverrideRequest) (dto.GradingResultResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	results     repository.ResultRepository
	grader      ai.Grader
	broadcaster SubmissionBroadcaster
	guard       *AccessGuard
	audit       AuditRecorder
	validate    *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// GradingServiceDeps bundles the collaborators of the grading service.
type GradingServiceDeps struct {
	Submissions repository.SubmissionRepository
	Results     repository.ResultRepository
	Grader      ai.Grader
	Broadcaster SubmissionBroadcaster
	Guard       *AccessGuard
	Audit       AuditRecorder
	Validate    *validator.Validate
	Logger      zerolog.Logger
}

// NewGradingService constructs the grading service.
func NewGradingService(deps GradingServiceDeps) GradingService {
	return &gradingService{
		submissions: deps.Submissions,
		results:     deps.Results,
		grader:      deps.Grader,
		broadcaster: deps.Broadcaster,
		guard:       deps.Guard,
		audit:       deps.Audit,
		validate:    deps.Validate,
		logger:      deps.Logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/educasol/educasol-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) Analyze(ctx context.Context, actor Actor, submissionID uint) (dto.GradingResultResponse, error) {
	submission, err := s.getOwned(ctx, actor, submissionID, "grading.analyze")
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	if !submission.IsGradable() {
		return dto.GradingResultResponse{}, fmt.Errorf("%w: status is %s", ErrSubmissionNotGradable, submission.Status)
	}

	rubric, err := schema.DecodeRubric(submission.Exam.Rubric)
	if err != nil {
		return dto.GradingResultResponse{}, fmt.Errorf("decode rubric: %w", err)
	}

	spanCtx, span := s.tracer.Start(ctx, "grading.analyze", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submission.ID)),
		attribute.Int64("exam.id", int64(submission.ExamID)),
		attribute.String("submission.file_type", submission.FileType),
	))
	defer span.End()

	if err := s.transition(spanCtx, &submission, models.SubmissionStatusProcessing, ""); err != nil {
		span.RecordError(err)
		return dto.GradingResultResponse{}, err
	}

	output, err := s.grader.GradeExam(spanCtx, buildGradeInput(submission, rubric))
	if err != nil {
		span.RecordError(err)
		observability.GradingRunsTotal().WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("grading failed")

		if failErr := s.transition(spanCtx, &submission, models.SubmissionStatusFailed, err.Error()); failErr != nil {
			s.logger.Error().Err(failErr).Uint("submission_id", submission.ID).Msg("failed to mark submission as failed")
		}
		return dto.GradingResultResponse{}, fmt.Errorf("grade submission: %w", err)
	}

	sheet := buildResultSheet(output, rubric)

	result, sheet, err := s.persistResult(spanCtx, submission, output, sheet)
	if err != nil {
		span.RecordError(err)
		if failErr := s.transition(spanCtx, &submission, models.SubmissionStatusFailed, "failed to persist grading result"); failErr != nil {
			s.logger.Error().Err(failErr).Uint("submission_id", submission.ID).Msg("failed to mark submission as failed")
		}
		return dto.GradingResultResponse{}, err
	}

	finalScore := sheet.FinalScore()
	submission.TotalScore = &finalScore
	processedAt := s.now().UTC()
	submission.ProcessedAt = &processedAt
	if err := s.transition(spanCtx, &submission, models.SubmissionStatusGraded, ""); err != nil {
		span.RecordError(err)
		return dto.GradingResultResponse{}, err
	}

	observability.GradingRunsTotal().WithLabelValues("graded").Inc()
	s.recordAudit(spanCtx, actor, "grading.analyzed", submission.ID, map[string]interface{}{
		"final_score": finalScore,
		"confidence":  output.Confidence,
	})
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("final_score", finalScore).
		Float64("confidence", output.Confidence).
		Msg("submission graded")

	return dto.NewGradingResultResponse(result, sheet), nil
}

func (s *gradingService) GetResult(ctx context.Context, actor Actor, submissionID uint) (dto.GradingResultResponse, error) {
	if _, err := s.getOwned(ctx, actor, submissionID, "grading.view"); err != nil {
		return dto.GradingResultResponse{}, err
	}

	result, sheet, err := s.loadResult(ctx, submissionID)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	return dto.NewGradingResultResponse(result, sheet), nil
}

func (s *gradingService) ApplyOverride(ctx context.Context, actor Actor, submissionID uint, req dto.OverrideRequest) (dto.GradingResultResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.GradingResultResponse{}, err
	}

	submission, err := s.getOwned(ctx, actor, submissionID, "grading.override")
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	result, sheet, err := s.loadResult(ctx, submissionID)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	question := sheet.QuestionByNumber(req.QuestionNumber)
	if question == nil {
		return dto.GradingResultResponse{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, req.QuestionNumber)
	}
	if question.MaxPoints > 0 && req.Score > question.MaxPoints {
		return dto.GradingResultResponse{}, fmt.Errorf("%w: %.2f > %.2f", ErrScoreOutOfRange, req.Score, question.MaxPoints)
	}

	stored := sheet.SetOverride(*question, req.Score, s.now().UTC())

	encoded, err := schema.EncodeOverrides(sheet.Overrides)
	if err != nil {
		return dto.GradingResultResponse{}, fmt.Errorf("encode overrides: %w", err)
	}
	result.Overrides = encoded

	if err := s.results.Update(ctx, &result); err != nil {
		return dto.GradingResultResponse{}, err
	}

	finalScore := sheet.FinalScore()
	submission.TotalScore = &finalScore
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.GradingResultResponse{}, err
	}
	s.publishEvent(ctx, EventUpdate, submission)

	action := "grading.override_set"
	if !stored {
		action = "grading.override_cleared"
	}
	s.recordAudit(ctx, actor, action, submission.ID, map[string]interface{}{
		"question_number": req.QuestionNumber,
		"score":           req.Score,
		"final_score":     finalScore,
	})

	return dto.NewGradingResultResponse(result, sheet), nil
}

func (s *gradingService) loadResult(ctx context.Context, submissionID uint) (models.GradingResult, models.ResultSheet, error) {
	result, err := s.results.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.GradingResult{}, models.ResultSheet{}, ErrResultNotFound
		}
		return models.GradingResult{}, models.ResultSheet{}, err
	}

	questions, err := schema.DecodeQuestions(result.Questions)
	if err != nil {
		return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("decode questions: %w", err)
	}

	overrides := map[string]models.QuestionOverride{}
	if len(result.Overrides) > 0 {
		overrides, err = schema.DecodeOverrides(result.Overrides)
		if err != nil {
			return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("decode overrides: %w", err)
		}
	}

	return result, models.ResultSheet{Questions: questions, Overrides: overrides}, nil
}

// persistResult writes the grading artefact, reusing the existing row and its
// verification token when the submission is re-analyzed. Overrides reset on
// re-analysis because they reference scores that no longer exist.
func (s *gradingService) persistResult(ctx context.Context, submission models.Submission, output ai.GradeOutput, sheet models.ResultSheet) (models.GradingResult, models.ResultSheet, error) {
	encodedQuestions, err := schema.EncodeQuestions(sheet.Questions)
	if err != nil {
		return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("encode questions: %w", err)
	}
	encodedOverrides, err := schema.EncodeOverrides(map[string]models.QuestionOverride{})
	if err != nil {
		return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("encode overrides: %w", err)
	}

	existing, err := s.results.GetBySubmissionID(ctx, submission.ID)
	switch {
	case err == nil:
		existing.StudentName = output.StudentName
		existing.StudentID = output.StudentID
		existing.HandwritingQuality = output.HandwritingQuality
		existing.Questions = encodedQuestions
		existing.Overrides = encodedOverrides
		existing.SummaryComment = output.SummaryComment
		existing.Confidence = clampConfidence(output.Confidence)
		if err := s.results.Update(ctx, &existing); err != nil {
			return models.GradingResult{}, models.ResultSheet{}, err
		}
		sheet.Overrides = map[string]models.QuestionOverride{}
		return existing, sheet, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		result := models.GradingResult{
			SubmissionID:       submission.ID,
			StudentName:        output.StudentName,
			StudentID:          output.StudentID,
			HandwritingQuality: output.HandwritingQuality,
			Questions:          encodedQuestions,
			Overrides:          encodedOverrides,
			SummaryComment:     output.SummaryComment,
			Confidence:         clampConfidence(output.Confidence),
			VerificationToken:  uuid.NewString(),
		}
		if err := s.results.Create(ctx, &result); err != nil {
			return models.GradingResult{}, models.ResultSheet{}, err
		}
		return result, sheet, nil

	default:
		return models.GradingResult{}, models.ResultSheet{}, err
	}
}

func (s *gradingService) transition(ctx context.Context, submission *models.Submission, status, errorMessage string) error {
	submission.Status = status
	submission.ErrorMessage = errorMessage
	if err := s.submissions.Update(ctx, submission); err != nil {
		return err
	}

	s.publishEvent(ctx, EventUpdate, *submission)
	return nil
}

func (s *gradingService) publishEvent(ctx context.Context, eventType string, submission models.Submission) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, SubmissionEvent{
		Type:       eventType,
		ExamID:     submission.ExamID,
		Submission: dto.NewSubmissionResponse(submission),
		OccurredAt: s.now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish submission event")
	}
}

func (s *gradingService) getOwned(ctx context.Context, actor Actor, id uint, action string) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	decision := CheckSubmissionView(SubmissionAccessContext{Actor: actor, ExamEducatorID: submission.Exam.EducatorID, ExamSchoolID: submission.Exam.SchoolID})
	submissionID := submission.ID
	if err := s.guard.Enforce(ctx, actor, decision, action, "submission", &submissionID); err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *gradingService) recordAudit(ctx context.Context, actor Actor, action string, submissionID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	id := submissionID
	if err := s.audit.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     action,
		EntityType: "submission",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}

func buildGradeInput(submission models.Submission, rubric models.Rubric) ai.GradeInput {
	questions := make([]ai.GradeQuestion, 0, len(rubric.Questions))
	for _, q := range rubric.Questions {
		questions = append(questions, ai.GradeQuestion{
			Number:         q.Number,
			Topic:          q.Topic,
			MaxPoints:      q.MaxPoints,
			ExpectedAnswer: q.ExpectedAnswer,
			Keywords:       q.Keywords,
			PartialCredit:  q.PartialCredit,
		})
	}

	return ai.GradeInput{
		ExamTitle:         submission.Exam.Title,
		Instructions:      rubric.GradingInstructions,
		Questions:         questions,
		FileURL:           submission.FileURL,
		FileType:          submission.FileType,
		StudentIdentifier: submission.StudentIdentifier,
	}
}

// buildResultSheet aligns the grader output with the rubric. Every rubric
// question appears exactly once; questions the grader skipped score zero.
func buildResultSheet(output ai.GradeOutput, rubric models.Rubric) models.ResultSheet {
	graded := make(map[string]ai.GradedQuestion, len(output.Questions))
	for _, q := range output.Questions {
		graded[q.Number] = q
	}

	questions := make([]models.QuestionResult, 0, len(rubric.Questions))
	for _, rubricQuestion := range rubric.Questions {
		result := models.QuestionResult{
			Number:    rubricQuestion.Number,
			MaxPoints: rubricQuestion.MaxPoints,
		}

		if verdict, ok := graded[rubricQuestion.Number]; ok {
			result.PointsAwarded = clampPoints(verdict.PointsAwarded, rubricQuestion.MaxPoints)
			result.Correct = verdict.Correct
			result.Transcription = verdict.Transcription
			result.Reasoning = verdict.Reasoning
			result.Feedback = verdict.Feedback
		} else {
			result.Feedback = "no answer detected for this question"
		}

		questions = append(questions, result)
	}

	return models.ResultSheet{
		Questions: questions,
		Overrides: map[string]models.QuestionOverride{},
	}
}

func clampPoints(points, max float64) float64 {
	if points < 0 {
		return 0
	}
	if max > 0 && points > max {
		return max
	}
	return points
}

func clampConfidence(confidence float64) float64 {
	return math.Min(1, math.Max(0, confidence))
}
