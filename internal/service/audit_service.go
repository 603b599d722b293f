package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

// AuditEvent captures the details required to persist an audit entry.
type AuditEvent struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	Reason     string
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
}

// AuditService exposes methods to persist and query the audit log.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit log service.
func NewAuditService(repo repository.AuditRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, event AuditEvent) error {
	if strings.TrimSpace(event.Action) == "" {
		return fmt.Errorf("action is required")
	}
	if strings.TrimSpace(event.EntityType) == "" {
		return fmt.Errorf("entity type is required")
	}

	model := models.AuditEntry{
		ActorID:    event.Actor.ID,
		ActorRole:  normalizeActorRole(event.Actor.Role),
		Action:     strings.ToLower(strings.TrimSpace(event.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(event.EntityType)),
		EntityID:   event.EntityID,
		Reason:     event.Reason,
		Metadata:   sanitizeMetadata(event.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist audit entry")
		return err
	}

	return nil
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditFilter{
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAuditEntryResponse(entry))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	return dto.AuditListResponse{
		Items:      items,
		TotalItems: total,
		Page:       page,
		PageSize:   req.PageSize,
	}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeActorRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
