package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/schema"
)

func seededVerificationRepo(t *testing.T, token string) *stubResultRepo {
	t.Helper()

	rubric := models.Rubric{
		TotalPoints: 20,
		Questions: []models.RubricQuestion{
			{Number: "1", MaxPoints: 10},
			{Number: "2", MaxPoints: 10},
		},
	}
	encodedRubric, err := schema.EncodeRubric(rubric)
	require.NoError(t, err)

	questions, err := schema.EncodeQuestions([]models.QuestionResult{
		{Number: "1", PointsAwarded: 8, MaxPoints: 10},
		{Number: "2", PointsAwarded: 5, MaxPoints: 10},
	})
	require.NoError(t, err)

	overrides, err := schema.EncodeOverrides(map[string]models.QuestionOverride{
		"2": {QuestionNumber: "2", OriginalScore: 5, OverrideScore: 7, OverriddenAt: time.Now()},
	})
	require.NoError(t, err)

	processedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	repo := newStubResultRepo()
	require.NoError(t, repo.Create(context.Background(), &models.GradingResult{
		SubmissionID:      1,
		StudentName:       "jane doe",
		Questions:         questions,
		Overrides:         overrides,
		VerificationToken: token,
		Submission: models.Submission{
			ID:                1,
			StudentIdentifier: "row 4",
			ProcessedAt:       &processedAt,
			Exam:              models.Exam{ID: 5, Title: "Midterm", Rubric: encodedRubric, EducatorID: 1},
		},
	}))

	return repo
}

func TestVerificationServiceResolvesToken(t *testing.T) {
	token := uuid.NewString()
	svc := NewVerificationService(seededVerificationRepo(t, token), zerolog.Nop())

	record, err := svc.Verify(context.Background(), "  "+token+"  ")
	require.NoError(t, err)
	require.Equal(t, "J.D.", record.StudentInitials)
	require.Equal(t, "Midterm", record.ExamTitle)
	require.Equal(t, 15.0, record.FinalScore)
	require.Equal(t, 20.0, record.TotalPoints)
	require.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), record.GradedAt)
}

func TestVerificationServiceGenericErrorForAllFailures(t *testing.T) {
	svc := NewVerificationService(seededVerificationRepo(t, uuid.NewString()), zerolog.Nop())

	// Malformed tokens, non-v4 UUIDs, and unknown tokens all surface the same
	// error so the public endpoint reveals nothing about stored data.
	cases := []string{
		"",
		"not-a-uuid",
		"'; DROP TABLE grading_results; --",
		"00000000-0000-1000-8000-000000000000",
		uuid.NewString(),
	}

	for _, token := range cases {
		_, err := svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, ErrVerificationNotFound, token)
	}
}

func TestInitialsOf(t *testing.T) {
	require.Equal(t, "J.D.", initialsOf("Jane Doe"))
	require.Equal(t, "J.", initialsOf("jane"))
	require.Equal(t, "M.V.D.B.", initialsOf("maria van den berg"))
	require.Empty(t, initialsOf("   "))
}
