package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/schema"
)

// ErrVerificationNotFound covers both malformed tokens and tokens with no
// matching result. The public endpoint must not reveal which case occurred.
var ErrVerificationNotFound = errors.New("verification record not found")

// VerificationService resolves public verification tokens without exposing
// student identity.
type VerificationService interface {
	Verify(ctx context.Context, token string) (dto.VerificationResponse, error)
}

type verificationService struct {
	results repository.ResultRepository
	logger  zerolog.Logger
}

// NewVerificationService constructs the verification service.
func NewVerificationService(results repository.ResultRepository, logger zerolog.Logger) VerificationService {
	return &verificationService{
		results: results,
		logger:  logger.With().Str("component", "verification_service").Logger(),
	}
}

func (s *verificationService) Verify(ctx context.Context, token string) (dto.VerificationResponse, error) {
	token = strings.TrimSpace(token)

	parsed, err := uuid.Parse(token)
	if err != nil || parsed.Version() != 4 {
		return dto.VerificationResponse{}, ErrVerificationNotFound
	}

	result, err := s.results.GetByVerificationToken(ctx, parsed.String())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("verification lookup failed")
		}
		return dto.VerificationResponse{}, ErrVerificationNotFound
	}

	rubric, err := schema.DecodeRubric(result.Submission.Exam.Rubric)
	if err != nil {
		s.logger.Error().Err(err).Uint("result_id", result.ID).Msg("stored rubric failed to decode")
		return dto.VerificationResponse{}, ErrVerificationNotFound
	}

	questions, err := schema.DecodeQuestions(result.Questions)
	if err != nil {
		return dto.VerificationResponse{}, ErrVerificationNotFound
	}

	overrides := map[string]models.QuestionOverride{}
	if len(result.Overrides) > 0 {
		overrides, err = schema.DecodeOverrides(result.Overrides)
		if err != nil {
			return dto.VerificationResponse{}, ErrVerificationNotFound
		}
	}

	sheet := models.ResultSheet{Questions: questions, Overrides: overrides}

	gradedAt := result.UpdatedAt
	if result.Submission.ProcessedAt != nil {
		gradedAt = *result.Submission.ProcessedAt
	}

	name := result.StudentName
	if name == "" {
		name = result.Submission.StudentIdentifier
	}

	return dto.VerificationResponse{
		StudentInitials: initialsOf(name),
		ExamTitle:       result.Submission.Exam.Title,
		GradedAt:        gradedAt,
		FinalScore:      sheet.FinalScore(),
		TotalPoints:     rubric.TotalPoints,
	}, nil
}

// initialsOf reduces a student name to dotted uppercase initials so the
// public page never shows the full name.
func initialsOf(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, field := range fields {
		runes := []rune(field)
		builder.WriteRune(unicode.ToUpper(runes[0]))
		builder.WriteByte('.')
	}

	return builder.String()
}
