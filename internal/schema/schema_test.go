package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/models"
)

func TestDecodeRubricRoundTrip(t *testing.T) {
	rubric := models.Rubric{
		Title:       "Algebra Midterm",
		TotalPoints: 20,
		Questions: []models.RubricQuestion{
			{Number: "1", Topic: "linear equations", MaxPoints: 10, Keywords: []string{"slope"}},
			{Number: "2", MaxPoints: 10, PartialCredit: "half marks for setup"},
		},
		GradingInstructions: "accept equivalent forms",
	}

	encoded, err := EncodeRubric(rubric)
	require.NoError(t, err)

	decoded, err := DecodeRubric(encoded)
	require.NoError(t, err)
	require.Equal(t, rubric, decoded)
}

func TestDecodeRubricRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty object":        `{}`,
		"no questions":        `{"total_points": 10, "questions": []}`,
		"zero total":          `{"total_points": 0, "questions": [{"number": "1", "max_points": 10}]}`,
		"zero max points":     `{"total_points": 10, "questions": [{"number": "1", "max_points": 0}]}`,
		"blank number":        `{"total_points": 10, "questions": [{"number": "", "max_points": 10}]}`,
		"missing max points":  `{"total_points": 10, "questions": [{"number": "1"}]}`,
		"number not a string": `{"total_points": 10, "questions": [{"number": 1, "max_points": 10}]}`,
		"not json":            `{nope`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRubric([]byte(payload))
			require.Error(t, err)
		})
	}
}

func TestDecodeRubricEmptyInput(t *testing.T) {
	_, err := DecodeRubric(nil)
	require.Error(t, err)
}

func TestDecodeQuestionsRoundTrip(t *testing.T) {
	questions := []models.QuestionResult{
		{Number: "1", PointsAwarded: 8, MaxPoints: 10, Correct: false, Feedback: "close"},
		{Number: "2", PointsAwarded: 10, MaxPoints: 10, Correct: true},
	}

	encoded, err := EncodeQuestions(questions)
	require.NoError(t, err)

	decoded, err := DecodeQuestions(encoded)
	require.NoError(t, err)
	require.Equal(t, questions, decoded)
}

func TestDecodeQuestionsEmptyInput(t *testing.T) {
	decoded, err := DecodeQuestions(nil)
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeQuestionsRejectsNegativePoints(t *testing.T) {
	_, err := DecodeQuestions([]byte(`[{"number": "1", "points_awarded": -1, "max_points": 10}]`))
	require.Error(t, err)
}

func TestDecodeOverridesRoundTrip(t *testing.T) {
	overrides := map[string]models.QuestionOverride{
		"2": {QuestionNumber: "2", OriginalScore: 5, OverrideScore: 7, OverriddenAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}

	encoded, err := EncodeOverrides(overrides)
	require.NoError(t, err)

	decoded, err := DecodeOverrides(encoded)
	require.NoError(t, err)
	require.Equal(t, overrides, decoded)
}

func TestDecodeOverridesEmptyInput(t *testing.T) {
	decoded, err := DecodeOverrides(nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
	require.NotNil(t, decoded)
}

func TestDecodeOverridesRejectsMissingFields(t *testing.T) {
	_, err := DecodeOverrides([]byte(`{"2": {"question_number": "2"}}`))
	require.Error(t, err)
}

func TestEncodeOverridesNilMap(t *testing.T) {
	encoded, err := EncodeOverrides(nil)
	require.NoError(t, err)
	require.Equal(t, "{}", string(encoded))
}
