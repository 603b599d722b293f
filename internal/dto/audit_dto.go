package dto

import (
	"time"

	"github.com/educasol/educasol-api/internal/models"
)

// AuditListRequest filters audit log queries.
type AuditListRequest struct {
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action" validate:"omitempty,max=64"`
	EntityType string `query:"entity_type" validate:"omitempty,max=32"`
	Page       int    `query:"page" validate:"omitempty,gte=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=1,lte=200"`
}

// AuditEntryResponse serializes one audit log entry.
type AuditEntryResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Reason     string                 `json:"reason,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditListResponse wraps a page of audit entries.
type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	TotalItems int64                `json:"total_items"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}

// NewAuditEntryResponse converts an AuditEntry model into a DTO.
func NewAuditEntryResponse(model models.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Reason:     model.Reason,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}
