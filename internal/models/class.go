package models

import (
	"time"

	"gorm.io/datatypes"
)

// Class groups students under an educator for roster management.
type Class struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Subject    string         `gorm:"size:128" json:"subject"`
	GradeLevel string         `gorm:"size:32" json:"grade_level"`
	EducatorID uint           `gorm:"not null;index" json:"educator_id"`
	SchoolID   *uint          `gorm:"index" json:"school_id"`
	Roster     datatypes.JSON `json:"roster"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
