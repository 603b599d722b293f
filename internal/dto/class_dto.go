package dto

import (
	"encoding/json"
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// ClassCreateRequest is the payload for creating a class.
type ClassCreateRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=255"`
	Subject    string   `json:"subject" validate:"omitempty,max=128"`
	GradeLevel string   `json:"grade_level" validate:"omitempty,max=32"`
	Roster     []string `json:"roster" validate:"omitempty,dive,min=1,max=128"`
}

// ClassUpdateRequest is the payload for updating a class.
type ClassUpdateRequest struct {
	Name       *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Subject    *string   `json:"subject" validate:"omitempty,max=128"`
	GradeLevel *string   `json:"grade_level" validate:"omitempty,max=32"`
	Roster     *[]string `json:"roster" validate:"omitempty,dive,min=1,max=128"`
}

// ClassResponse is returned to API clients when viewing classes.
type ClassResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	GradeLevel string    `json:"grade_level"`
	EducatorID uint      `json:"educator_id"`
	SchoolID   *uint     `json:"school_id"`
	Roster     []string  `json:"roster"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewClassResponse converts a Class model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	roster := []string{}
	if len(model.Roster) > 0 {
		// A roster that fails to decode renders as empty rather than erroring.
		_ = json.Unmarshal(model.Roster, &roster)
	}

	return ClassResponse{
		ID:         model.ID,
		Name:       model.Name,
		Subject:    model.Subject,
		GradeLevel: model.GradeLevel,
		EducatorID: model.EducatorID,
		SchoolID:   model.SchoolID,
		Roster:     roster,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewClassResponseSlice converts class models into DTOs.
func NewClassResponseSlice(models []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(models))
	for _, class := range models {
		responses = append(responses, NewClassResponse(class))
	}

	return responses
}
