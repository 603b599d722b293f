package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// RubricQuestionPayload describes one rubric question in a create/update request.
type RubricQuestionPayload struct {
	Number         string   `json:"number" validate:"required,min=1"`
	Topic          string   `json:"topic" validate:"omitempty,max=255"`
	MaxPoints      float64  `json:"max_points" validate:"required,gt=0"`
	ExpectedAnswer string   `json:"expected_answer"`
	Keywords       []string `json:"keywords" validate:"omitempty,dive,min=1"`
	PartialCredit  string   `json:"partial_credit"`
}

// RubricPayload describes the rubric in exam create/update requests.
type RubricPayload struct {
	Title               string                  `json:"title" validate:"omitempty,max=255"`
	TotalPoints         float64                 `json:"total_points" validate:"required,gt=0"`
	Questions           []RubricQuestionPayload `json:"questions" validate:"required,min=1,dive"`
	GradingInstructions string                  `json:"grading_instructions"`
}

// ToModel converts the payload into the domain rubric value.
func (p RubricPayload) ToModel() models.Rubric {
	questions := make([]models.RubricQuestion, 0, len(p.Questions))
	for _, q := range p.Questions {
		questions = append(questions, models.RubricQuestion{
			Number:         q.Number,
			Topic:          q.Topic,
			MaxPoints:      q.MaxPoints,
			ExpectedAnswer: q.ExpectedAnswer,
			Keywords:       q.Keywords,
			PartialCredit:  q.PartialCredit,
		})
	}

	return models.Rubric{
		Title:               p.Title,
		TotalPoints:         p.TotalPoints,
		Questions:           questions,
		GradingInstructions: p.GradingInstructions,
	}
}

// ExamCreateRequest is the payload for creating an exam.
type ExamCreateRequest struct {
	Title       string        `json:"title" validate:"required,min=1,max=255"`
	Description string        `json:"description"`
	Rubric      RubricPayload `json:"rubric" validate:"required"`
}

// ExamUpdateRequest is the payload for updating an exam.
type ExamUpdateRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description"`
	Status      *string        `json:"status" validate:"omitempty,oneof=draft published archived"`
	Rubric      *RubricPayload `json:"rubric"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Rubric      models.Rubric `json:"rubric"`
	EducatorID  uint          `json:"educator_id"`
	SchoolID    *uint         `json:"school_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewExamResponse converts an exam model plus its decoded rubric into a DTO.
func NewExamResponse(model models.Exam, rubric models.Rubric) ExamResponse {
	return ExamResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Status:      model.Status,
		Rubric:      rubric,
		EducatorID:  model.EducatorID,
		SchoolID:    model.SchoolID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
