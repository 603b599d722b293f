package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// LessonPlanGenerateRequest asks the AI composer for a new lesson draft.
type LessonPlanGenerateRequest struct {
	Topic      string `json:"topic" validate:"required,min=3,max=255"`
	Subject    string `json:"subject" validate:"omitempty,max=128"`
	GradeLevel string `json:"grade_level" validate:"omitempty,max=32"`
}

// LessonPlanUpdateRequest edits an existing lesson plan.
type LessonPlanUpdateRequest struct {
	Content *string `json:"content" validate:"omitempty,min=1"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft ready"`
}

// LessonPlanResponse is returned to API clients when viewing lesson plans.
type LessonPlanResponse struct {
	ID         uint      `json:"id"`
	EducatorID uint      `json:"educator_id"`
	Topic      string    `json:"topic"`
	Subject    string    `json:"subject"`
	GradeLevel string    `json:"grade_level"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewLessonPlanResponse converts a LessonPlan model into a DTO.
func NewLessonPlanResponse(model models.LessonPlan) LessonPlanResponse {
	return LessonPlanResponse{
		ID:         model.ID,
		EducatorID: model.EducatorID,
		Topic:      model.Topic,
		Subject:    model.Subject,
		GradeLevel: model.GradeLevel,
		Content:    model.Content,
		Status:     model.Status,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewLessonPlanResponseSlice converts lesson plan models into DTOs.
func NewLessonPlanResponseSlice(models []models.LessonPlan) []LessonPlanResponse {
	responses := make([]LessonPlanResponse, 0, len(models))
	for _, plan := range models {
		responses = append(responses, NewLessonPlanResponse(plan))
	}

	return responses
}
