package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for an upload.
type SubmissionCreateRequest struct {
	ExamID            uint   `form:"exam_id" validate:"required,gt=0"`
	StudentIdentifier string `form:"student_identifier" validate:"omitempty,max=128"`
}

// SubmissionFilters narrows submission listings. A zero value matches every
// submission.
type SubmissionFilters struct {
	ExamID   *uint    `query:"exam_id"`
	Status   *string  `query:"status" validate:"omitempty,oneof=uploaded processing graded failed"`
	MinScore *float64 `query:"min_score" validate:"omitempty,gte=0"`
	MaxScore *float64 `query:"max_score" validate:"omitempty,gte=0"`
	Search   string   `query:"search" validate:"omitempty,max=128"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                uint       `json:"id"`
	ExamID            uint       `json:"exam_id"`
	StudentIdentifier string     `json:"student_identifier"`
	FileURL           string     `json:"file_url"`
	FileType          string     `json:"file_type"`
	FileSize          int64      `json:"file_size"`
	Status            string     `json:"status"`
	TotalScore        *float64   `json:"total_score"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Exam              ExamLite   `json:"exam"`
}

// ExamLite summarizes an exam in submission responses.
type ExamLite struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// SubmissionStats counts submissions per lifecycle status for one exam.
type SubmissionStats struct {
	Uploaded   int `json:"uploaded"`
	Processing int `json:"processing"`
	Graded     int `json:"graded"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// SubmissionStatsResponse maps exam identifiers to status counts.
type SubmissionStatsResponse struct {
	Stats       map[uint]SubmissionStats `json:"stats"`
	GeneratedAt time.Time                `json:"generated_at"`
	CacheHit    bool                     `json:"cache_hit"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:                model.ID,
		ExamID:            model.ExamID,
		StudentIdentifier: model.StudentIdentifier,
		FileURL:           model.FileURL,
		FileType:          model.FileType,
		FileSize:          model.FileSize,
		Status:            model.Status,
		TotalScore:        model.TotalScore,
		ErrorMessage:      model.ErrorMessage,
		ProcessedAt:       model.ProcessedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}

	if model.Exam.ID != 0 {
		response.Exam = ExamLite{
			ID:     model.Exam.ID,
			Title:  model.Exam.Title,
			Status: model.Exam.Status,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
