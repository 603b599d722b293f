package models

import "time"

// Profile represents an educator account on the platform.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	SchoolID  *uint     `gorm:"index" json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleEducator identifies a teacher account.
	RoleEducator = "educator"
	// RoleAdmin identifies a school administrator account.
	RoleAdmin = "admin"
)

// IsEducator reports whether the profile belongs to a teacher or admin.
func (p Profile) IsEducator() bool {
	return p.Role == RoleEducator || p.Role == RoleAdmin
}
