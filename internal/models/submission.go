package models

import "time"

// Submission represents a student exam paper uploaded for grading.
type Submission struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ExamID            uint       `gorm:"not null;index" json:"exam_id"`
	StudentIdentifier string     `gorm:"size:128" json:"student_identifier"`
	FileURL           string     `gorm:"size:512" json:"file_url"`
	StoragePath       string     `gorm:"size:512" json:"storage_path"`
	FileType          string     `gorm:"size:8;not null" json:"file_type"`
	FileSize          int64      `gorm:"not null" json:"file_size"`
	Status            string     `gorm:"size:16;not null" json:"status"`
	TotalScore        *float64   `json:"total_score"`
	ErrorMessage      string     `gorm:"type:text" json:"error_message"`
	ProcessedAt       *time.Time `json:"processed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Exam              Exam       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
}

const (
	// SubmissionStatusUploaded indicates the file is stored and awaiting grading.
	SubmissionStatusUploaded = "uploaded"
	// SubmissionStatusProcessing indicates the grader is working on the submission.
	SubmissionStatusProcessing = "processing"
	// SubmissionStatusGraded indicates grading finished successfully.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusFailed indicates grading ended with an error.
	SubmissionStatusFailed = "failed"
)

const (
	// FileTypePDF is a PDF submission.
	FileTypePDF = "pdf"
	// FileTypeJPEG is a JPEG image submission.
	FileTypeJPEG = "jpeg"
	// FileTypePNG is a PNG image submission.
	FileTypePNG = "png"
)

// IsGraded reports whether the submission carries a final score.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// IsGradable reports whether the submission may enter the grading pipeline.
func (s Submission) IsGradable() bool {
	return s.Status == SubmissionStatusUploaded || s.Status == SubmissionStatusFailed
}
