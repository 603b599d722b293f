package dto

import "time"

// VerificationResponse exposes the limited fields shown on the public
// verification page. Student identity is reduced to initials.
type VerificationResponse struct {
	StudentInitials string    `json:"student_initials"`
	ExamTitle       string    `json:"exam_title"`
	GradedAt        time.Time `json:"graded_at"`
	FinalScore      float64   `json:"final_score"`
	TotalPoints     float64   `json:"total_points"`
}
