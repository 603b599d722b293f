package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/educasol/educasol-api/internal/models"
)

// ErrAccessDenied indicates the actor may not perform the requested operation.
// The wrapped message carries the human-readable denial reason.
var ErrAccessDenied = errors.New("access denied")

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID       uint
	Role     string
	SchoolID *uint
}

// ExamAccessContext carries the fields needed to decide exam access. Values
// are passed in explicitly; decisions never re-derive them from storage.
type ExamAccessContext struct {
	Actor          Actor
	ExamEducatorID uint
	ExamSchoolID   *uint
}

// SubmissionAccessContext carries the denormalized parent-exam ownership
// fields needed to decide submission access.
type SubmissionAccessContext struct {
	Actor          Actor
	ExamEducatorID uint
	ExamSchoolID   *uint
}

// Decision is the outcome of an access check. Every denial carries a
// human-readable reason.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

func checkOwnership(actor Actor, educatorID uint, schoolID *uint) Decision {
	if actor.ID == 0 {
		return deny("authentication required")
	}

	if actor.Role != models.RoleEducator && actor.Role != models.RoleAdmin {
		return deny("educator role required")
	}

	if actor.ID != educatorID {
		return deny("exam belongs to another educator")
	}

	if actor.SchoolID != nil && schoolID != nil && *actor.SchoolID != *schoolID {
		return deny("exam belongs to another school")
	}

	return allow()
}

// CheckExamView decides whether the actor may view the exam.
func CheckExamView(ctx ExamAccessContext) Decision {
	return checkOwnership(ctx.Actor, ctx.ExamEducatorID, ctx.ExamSchoolID)
}

// CheckExamUpdate decides whether the actor may modify the exam.
func CheckExamUpdate(ctx ExamAccessContext) Decision {
	return checkOwnership(ctx.Actor, ctx.ExamEducatorID, ctx.ExamSchoolID)
}

// CheckSubmissionView decides whether the actor may view a submission. It
// delegates to the parent exam's ownership fields.
func CheckSubmissionView(ctx SubmissionAccessContext) Decision {
	return checkOwnership(ctx.Actor, ctx.ExamEducatorID, ctx.ExamSchoolID)
}

// CheckSubmissionCreate decides whether the actor may upload a submission to
// the parent exam.
func CheckSubmissionCreate(ctx SubmissionAccessContext) Decision {
	return checkOwnership(ctx.Actor, ctx.ExamEducatorID, ctx.ExamSchoolID)
}

// AccessGuard turns decisions into errors and records every denial for audit
// visibility.
type AccessGuard struct {
	audit  AuditRecorder
	logger zerolog.Logger
}

// NewAccessGuard constructs the guard.
func NewAccessGuard(audit AuditRecorder, logger zerolog.Logger) *AccessGuard {
	return &AccessGuard{
		audit:  audit,
		logger: logger.With().Str("component", "access_guard").Logger(),
	}
}

// Enforce returns nil for an allowed decision. Denials are logged, written to
// the audit log, and returned as ErrAccessDenied with the reason attached.
func (g *AccessGuard) Enforce(ctx context.Context, actor Actor, decision Decision, action, entityType string, entityID *uint) error {
	if decision.Allowed {
		return nil
	}

	g.logger.Warn().
		Uint("actor_id", actor.ID).
		Str("actor_role", actor.Role).
		Str("action", action).
		Str("reason", decision.Reason).
		Msg("access denied")

	if g.audit != nil {
		if err := g.audit.Record(ctx, AuditEvent{
			Actor:      actor,
			Action:     "access.denied",
			EntityType: entityType,
			EntityID:   entityID,
			Reason:     decision.Reason,
			Metadata:   map[string]interface{}{"operation": action},
		}); err != nil {
			g.logger.Warn().Err(err).Msg("failed to audit access denial")
		}
	}

	return fmt.Errorf("%w: %s", ErrAccessDenied, decision.Reason)
}
