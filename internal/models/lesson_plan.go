package models

import "time"

// LessonPlan is an AI-generated lesson draft owned by an educator.
type LessonPlan struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EducatorID uint      `gorm:"not null;index" json:"educator_id"`
	Topic      string    `gorm:"size:255;not null" json:"topic"`
	Subject    string    `gorm:"size:128" json:"subject"`
	GradeLevel string    `gorm:"size:32" json:"grade_level"`
	Content    string    `gorm:"type:text" json:"content"`
	Status     string    `gorm:"size:16;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	// LessonPlanStatusDraft marks plans still being edited.
	LessonPlanStatusDraft = "draft"
	// LessonPlanStatusReady marks plans approved for classroom use.
	LessonPlanStatusReady = "ready"
)
