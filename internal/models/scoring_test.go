package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func twoQuestionSheet() ResultSheet {
	return ResultSheet{
		Questions: []QuestionResult{
			{Number: "1", PointsAwarded: 8, MaxPoints: 10},
			{Number: "2", PointsAwarded: 5, MaxPoints: 10},
		},
		Overrides: map[string]QuestionOverride{},
	}
}

func TestFinalScoreUsesOverrides(t *testing.T) {
	sheet := twoQuestionSheet()
	require.Equal(t, 13.0, sheet.FinalScore())

	stored := sheet.SetOverride(sheet.Questions[1], 6, time.Now())
	require.True(t, stored)
	require.Equal(t, 14.0, sheet.FinalScore())

	override := sheet.GetOverride("2")
	require.NotNil(t, override)
	require.Equal(t, 5.0, override.OriginalScore)
	require.Equal(t, 6.0, override.OverrideScore)
}

func TestSetOverrideEqualScoreClearsEntry(t *testing.T) {
	sheet := twoQuestionSheet()

	require.True(t, sheet.SetOverride(sheet.Questions[0], 4, time.Now()))
	require.NotNil(t, sheet.GetOverride("1"))

	// Setting the score back to the AI original removes the override rather
	// than storing a no-op entry.
	stored := sheet.SetOverride(sheet.Questions[0], 8, time.Now())
	require.False(t, stored)
	require.Nil(t, sheet.GetOverride("1"))
	require.Equal(t, 13.0, sheet.FinalScore())
}

func TestSetOverrideReplacesPrevious(t *testing.T) {
	sheet := twoQuestionSheet()
	now := time.Now()

	require.True(t, sheet.SetOverride(sheet.Questions[0], 4, now))
	require.True(t, sheet.SetOverride(sheet.Questions[0], 6, now.Add(time.Minute)))

	override := sheet.GetOverride("1")
	require.NotNil(t, override)
	require.Equal(t, 6.0, override.OverrideScore)
	require.Equal(t, 8.0, override.OriginalScore)
	require.Len(t, sheet.Overrides, 1)
}

func TestEffectiveScore(t *testing.T) {
	sheet := twoQuestionSheet()
	require.Equal(t, 8.0, sheet.EffectiveScore(sheet.Questions[0]))

	sheet.SetOverride(sheet.Questions[0], 2, time.Now())
	require.Equal(t, 2.0, sheet.EffectiveScore(sheet.Questions[0]))
	require.Equal(t, 5.0, sheet.EffectiveScore(sheet.Questions[1]))
}

func TestQuestionByNumber(t *testing.T) {
	sheet := twoQuestionSheet()

	question := sheet.QuestionByNumber("2")
	require.NotNil(t, question)
	require.Equal(t, 5.0, question.PointsAwarded)

	require.Nil(t, sheet.QuestionByNumber("99"))
}

func TestGetOverrideNilMap(t *testing.T) {
	sheet := ResultSheet{Questions: []QuestionResult{{Number: "1", PointsAwarded: 3, MaxPoints: 5}}}
	require.Nil(t, sheet.GetOverride("1"))
	require.Equal(t, 3.0, sheet.FinalScore())
}
