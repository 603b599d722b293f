package models

import (
	"time"

	"gorm.io/datatypes"
)

// Exam represents a gradable exam owned by an educator.
type Exam struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:16;not null" json:"status"`
	Rubric      datatypes.JSON `json:"rubric"`
	EducatorID  uint           `gorm:"not null;index" json:"educator_id"`
	SchoolID    *uint          `gorm:"index" json:"school_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

const (
	// ExamStatusDraft indicates the exam is still being authored.
	ExamStatusDraft = "draft"
	// ExamStatusPublished indicates the exam accepts submissions.
	ExamStatusPublished = "published"
	// ExamStatusArchived indicates the exam is retired.
	ExamStatusArchived = "archived"
)

// Rubric describes how an exam is scored.
type Rubric struct {
	Title               string           `json:"title"`
	TotalPoints         float64          `json:"total_points"`
	Questions           []RubricQuestion `json:"questions"`
	GradingInstructions string           `json:"grading_instructions,omitempty"`
}

// RubricQuestion is a single scored item within a rubric.
type RubricQuestion struct {
	Number         string   `json:"number"`
	Topic          string   `json:"topic,omitempty"`
	MaxPoints      float64  `json:"max_points"`
	ExpectedAnswer string   `json:"expected_answer,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	PartialCredit  string   `json:"partial_credit,omitempty"`
}

// Question returns the rubric question with the given number, or nil.
func (r Rubric) Question(number string) *RubricQuestion {
	for i := range r.Questions {
		if r.Questions[i].Number == number {
			return &r.Questions[i]
		}
	}
	return nil
}
