package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

type stubAuditRepo struct {
	entries []models.AuditEntry
	filter  repository.AuditFilter
}

func (r *stubAuditRepo) Create(_ context.Context, entry *models.AuditEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]models.AuditEntry, int64, error) {
	r.filter = filter
	return r.entries, int64(len(r.entries)), nil
}

func TestAuditRecordNormalizesEntry(t *testing.T) {
	repo := &stubAuditRepo{}
	auditService := NewAuditService(repo, zerolog.Nop())

	entityID := uint(9)
	err := auditService.Record(context.Background(), AuditEvent{
		Actor:      Actor{ID: 3, Role: "  Educator "},
		Action:     "  Exam.Created ",
		EntityType: " Exam ",
		EntityID:   &entityID,
		Reason:     "initial draft",
		Metadata: map[string]interface{}{
			"title":         "Midterm",
			"contact_email": "jane@school.test",
			"share_token":   "abc123",
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, "exam.created", entry.Action)
	require.Equal(t, "exam", entry.EntityType)
	require.Equal(t, "educator", entry.ActorRole)
	require.Equal(t, uint(9), *entry.EntityID)
	require.Equal(t, "Midterm", entry.Metadata["title"])
	require.Equal(t, "***", entry.Metadata["contact_email"])
	require.Equal(t, "***", entry.Metadata["share_token"])
}

func TestAuditRecordRequiresActionAndEntity(t *testing.T) {
	repo := &stubAuditRepo{}
	auditService := NewAuditService(repo, zerolog.Nop())

	err := auditService.Record(context.Background(), AuditEvent{EntityType: "exam"})
	require.Error(t, err)

	err = auditService.Record(context.Background(), AuditEvent{Action: "exam.created"})
	require.Error(t, err)

	require.Empty(t, repo.entries)
}

func TestAuditRecordBlankRoleBecomesSystem(t *testing.T) {
	repo := &stubAuditRepo{}
	auditService := NewAuditService(repo, zerolog.Nop())

	err := auditService.Record(context.Background(), AuditEvent{Action: "grading.analyzed", EntityType: "submission"})
	require.NoError(t, err)
	require.Equal(t, "system", repo.entries[0].ActorRole)
}

func TestAuditListMapsEntriesAndFilter(t *testing.T) {
	repo := &stubAuditRepo{entries: []models.AuditEntry{
		{ActorID: 3, ActorRole: "educator", Action: "exam.created", EntityType: "exam", CreatedAt: time.Now()},
	}}
	auditService := NewAuditService(repo, zerolog.Nop())

	result, err := auditService.List(context.Background(), dto.AuditListRequest{
		ActorID:    3,
		Action:     " exam.created ",
		EntityType: "exam",
		PageSize:   25,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "exam.created", result.Items[0].Action)
	require.EqualValues(t, 1, result.TotalItems)
	require.Equal(t, 1, result.Page)

	require.Equal(t, uint(3), *repo.filter.ActorID)
	require.Equal(t, "exam.created", repo.filter.Action)
	require.Equal(t, 25, repo.filter.PageSize)
}

func TestSanitizeMetadataNil(t *testing.T) {
	sanitized := sanitizeMetadata(nil)
	require.NotNil(t, sanitized)
	require.Empty(t, sanitized)
}
