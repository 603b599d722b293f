package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/models"
)

func uintPtr(v uint) *uint {
	return &v
}

func TestCheckExamViewAllowsOwner(t *testing.T) {
	decision := CheckExamView(ExamAccessContext{
		Actor:          Actor{ID: 1, Role: models.RoleEducator},
		ExamEducatorID: 1,
	})
	require.True(t, decision.Allowed)
	require.Empty(t, decision.Reason)
}

func TestCheckExamViewAllowsAdminOwner(t *testing.T) {
	decision := CheckExamView(ExamAccessContext{
		Actor:          Actor{ID: 3, Role: models.RoleAdmin},
		ExamEducatorID: 3,
	})
	require.True(t, decision.Allowed)
}

func TestCheckExamViewDenials(t *testing.T) {
	cases := []struct {
		name   string
		ctx    ExamAccessContext
		reason string
	}{
		{
			name:   "anonymous",
			ctx:    ExamAccessContext{Actor: Actor{}, ExamEducatorID: 1},
			reason: "authentication required",
		},
		{
			name:   "wrong role",
			ctx:    ExamAccessContext{Actor: Actor{ID: 1, Role: "student"}, ExamEducatorID: 1},
			reason: "educator role required",
		},
		{
			name:   "different educator",
			ctx:    ExamAccessContext{Actor: Actor{ID: 2, Role: models.RoleEducator}, ExamEducatorID: 1},
			reason: "exam belongs to another educator",
		},
		{
			name: "different school",
			ctx: ExamAccessContext{
				Actor:          Actor{ID: 1, Role: models.RoleEducator, SchoolID: uintPtr(5)},
				ExamEducatorID: 1,
				ExamSchoolID:   uintPtr(6),
			},
			reason: "exam belongs to another school",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := CheckExamView(tc.ctx)
			require.False(t, decision.Allowed)
			require.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestCheckOwnershipSchoolMatchRequiresBothSet(t *testing.T) {
	// A missing school on either side never denies on its own.
	decision := CheckExamUpdate(ExamAccessContext{
		Actor:          Actor{ID: 1, Role: models.RoleEducator, SchoolID: uintPtr(5)},
		ExamEducatorID: 1,
	})
	require.True(t, decision.Allowed)

	decision = CheckExamUpdate(ExamAccessContext{
		Actor:          Actor{ID: 1, Role: models.RoleEducator},
		ExamEducatorID: 1,
		ExamSchoolID:   uintPtr(6),
	})
	require.True(t, decision.Allowed)
}

func TestCheckSubmissionChecksDelegateToExamOwnership(t *testing.T) {
	ctx := SubmissionAccessContext{
		Actor:          Actor{ID: 2, Role: models.RoleEducator},
		ExamEducatorID: 1,
	}

	require.False(t, CheckSubmissionView(ctx).Allowed)
	require.False(t, CheckSubmissionCreate(ctx).Allowed)

	ctx.Actor.ID = 1
	require.True(t, CheckSubmissionView(ctx).Allowed)
	require.True(t, CheckSubmissionCreate(ctx).Allowed)
}

type recordingAudit struct {
	events []AuditEvent
}

func (r *recordingAudit) Record(_ context.Context, event AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestAccessGuardEnforceAllowed(t *testing.T) {
	audit := &recordingAudit{}
	guard := NewAccessGuard(audit, zerolog.Nop())

	err := guard.Enforce(context.Background(), Actor{ID: 1}, Decision{Allowed: true}, "exam.view", "exam", nil)
	require.NoError(t, err)
	require.Empty(t, audit.events)
}

func TestAccessGuardEnforceDeniedRecordsAudit(t *testing.T) {
	audit := &recordingAudit{}
	guard := NewAccessGuard(audit, zerolog.Nop())

	examID := uint(9)
	err := guard.Enforce(context.Background(), Actor{ID: 2, Role: models.RoleEducator}, deny("exam belongs to another educator"), "exam.delete", "exam", &examID)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Contains(t, err.Error(), "exam belongs to another educator")

	require.Len(t, audit.events, 1)
	event := audit.events[0]
	require.Equal(t, "access.denied", event.Action)
	require.Equal(t, "exam", event.EntityType)
	require.Equal(t, examID, *event.EntityID)
	require.Equal(t, "exam.delete", event.Metadata["operation"])
}
