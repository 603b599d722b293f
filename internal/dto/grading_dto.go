package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// OverrideRequest sets or clears a teacher score override for one question.
type OverrideRequest struct {
	QuestionNumber string  `json:"question_number" validate:"required,min=1"`
	Score          float64 `json:"score" validate:"gte=0"`
}

// QuestionResultView is the override-aware view of one graded question.
type QuestionResultView struct {
	Number         string   `json:"number"`
	AIScore        float64  `json:"ai_score"`
	EffectiveScore float64  `json:"effective_score"`
	MaxPoints      float64  `json:"max_points"`
	Overridden     bool     `json:"overridden"`
	OriginalScore  *float64 `json:"original_score,omitempty"`
	Correct        bool     `json:"correct"`
	Transcription  string   `json:"transcription,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
	Feedback       string   `json:"feedback,omitempty"`
}

// GradingResultResponse is returned to API clients when viewing grading results.
type GradingResultResponse struct {
	ID                 uint                 `json:"id"`
	SubmissionID       uint                 `json:"submission_id"`
	StudentName        string               `json:"student_name"`
	StudentID          string               `json:"student_id"`
	HandwritingQuality string               `json:"handwriting_quality"`
	Questions          []QuestionResultView `json:"questions"`
	SummaryComment     string               `json:"summary_comment"`
	Confidence         float64              `json:"confidence"`
	FinalScore         float64              `json:"final_score"`
	VerificationToken  string               `json:"verification_token"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// NewGradingResultResponse converts a grading result plus its decoded sheet
// into a DTO with effective (override-aware) scores.
func NewGradingResultResponse(model models.GradingResult, sheet models.ResultSheet) GradingResultResponse {
	questions := make([]QuestionResultView, 0, len(sheet.Questions))
	for _, question := range sheet.Questions {
		view := QuestionResultView{
			Number:         question.Number,
			AIScore:        question.PointsAwarded,
			EffectiveScore: sheet.EffectiveScore(question),
			MaxPoints:      question.MaxPoints,
			Correct:        question.Correct,
			Transcription:  question.Transcription,
			Reasoning:      question.Reasoning,
			Feedback:       question.Feedback,
		}
		if override := sheet.GetOverride(question.Number); override != nil {
			view.Overridden = true
			original := override.OriginalScore
			view.OriginalScore = &original
		}
		questions = append(questions, view)
	}

	return GradingResultResponse{
		ID:                 model.ID,
		SubmissionID:       model.SubmissionID,
		StudentName:        model.StudentName,
		StudentID:          model.StudentID,
		HandwritingQuality: model.HandwritingQuality,
		Questions:          questions,
		SummaryComment:     model.SummaryComment,
		Confidence:         model.Confidence,
		FinalScore:         sheet.FinalScore(),
		VerificationToken:  model.VerificationToken,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
