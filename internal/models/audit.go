package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry records a sensitive action or an access denial for later review.
type AuditEntry struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:32;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Reason     string            `gorm:"size:255" json:"reason"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
