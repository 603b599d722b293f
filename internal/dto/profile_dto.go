package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// ProfileUpdateRequest edits the authenticated educator's own profile.
type ProfileUpdateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
}

// ProfileResponse is returned to API clients when viewing profiles.
type ProfileResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SchoolID  *uint     `json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfileResponse converts a Profile model into a DTO.
func NewProfileResponse(model models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        model.ID,
		FullName:  model.FullName,
		Email:     model.Email,
		Role:      model.Role,
		SchoolID:  model.SchoolID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
