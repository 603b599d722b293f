package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingResult stores the AI grading artefact for a submission, including
// any teacher overrides applied afterwards.
type GradingResult struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	SubmissionID       uint           `gorm:"not null;uniqueIndex" json:"submission_id"`
	StudentName        string         `gorm:"size:255" json:"student_name"`
	StudentID          string         `gorm:"size:128" json:"student_id"`
	HandwritingQuality string         `gorm:"size:16" json:"handwriting_quality"`
	Questions          datatypes.JSON `json:"questions"`
	Overrides          datatypes.JSON `json:"overrides"`
	SummaryComment     string         `gorm:"type:text" json:"summary_comment"`
	Confidence         float64        `json:"confidence"`
	VerificationToken  string         `gorm:"size:36;uniqueIndex" json:"verification_token"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Submission         Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// Handwriting quality levels reported by the grader.
const (
	HandwritingExcellent = "excellent"
	HandwritingGood      = "good"
	HandwritingFair      = "fair"
	HandwritingPoor      = "poor"
)

// QuestionResult is the AI verdict for a single rubric question.
type QuestionResult struct {
	Number        string  `json:"number"`
	PointsAwarded float64 `json:"points_awarded"`
	MaxPoints     float64 `json:"max_points"`
	Correct       bool    `json:"correct"`
	Transcription string  `json:"transcription,omitempty"`
	Reasoning     string  `json:"reasoning,omitempty"`
	Feedback      string  `json:"feedback,omitempty"`
}

// QuestionOverride records a teacher correction of an AI score. Overrides are
// keyed by question number; storing a new override for the same number
// replaces the previous one.
type QuestionOverride struct {
	QuestionNumber string    `json:"question_number"`
	OriginalScore  float64   `json:"original_score"`
	OverrideScore  float64   `json:"override_score"`
	OverriddenAt   time.Time `json:"overridden_at"`
}

// ResultSheet is the decoded, reconcilable view of a grading result.
type ResultSheet struct {
	Questions []QuestionResult            `json:"questions"`
	Overrides map[string]QuestionOverride `json:"overrides"`
}
