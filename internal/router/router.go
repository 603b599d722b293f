package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/educasol/educasol-api/internal/config"
	"github.com/educasol/educasol-api/internal/handler"
	"github.com/educasol/educasol-api/internal/middleware"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler       *handler.ExamHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	ExportHandler     *handler.ExportHandler
	RealtimeHandler   *handler.RealtimeHandler
	ClassHandler      *handler.ClassHandler
	LessonPlanHandler *handler.LessonPlanHandler
	ProfileHandler    *handler.ProfileHandler
	AuditHandler      *handler.AuditHandler
	VerifyHandler     *handler.VerifyHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// The verification endpoint is public: token only, no authentication,
	// no student identity in the response.
	if deps.VerifyHandler != nil {
		verify := api.Group("/verify", middleware.RateLimit("verify", 30, time.Minute))
		deps.VerifyHandler.Register(verify)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	educatorOnly := middleware.RequireRole(models.RoleEducator, models.RoleAdmin)

	if deps.ExamHandler != nil {
		exams := api.Group("/exams", jwtMiddleware, educatorOnly)
		deps.ExamHandler.Register(exams)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, educatorOnly)
		deps.SubmissionHandler.Register(submissions)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(submissions)
		}
		if deps.ExportHandler != nil {
			deps.ExportHandler.Register(submissions)
		}
	}

	if deps.RealtimeHandler != nil {
		feed := api.Group("/feed", jwtMiddleware, educatorOnly)
		deps.RealtimeHandler.Register(feed)
	}

	if deps.ClassHandler != nil {
		classes := api.Group("/classes", jwtMiddleware, educatorOnly)
		deps.ClassHandler.Register(classes)
	}

	if deps.LessonPlanHandler != nil {
		plans := api.Group("/lesson-plans", jwtMiddleware, educatorOnly)
		deps.LessonPlanHandler.Register(plans)
	}

	if deps.ProfileHandler != nil {
		profile := api.Group("/profile", jwtMiddleware)
		deps.ProfileHandler.Register(profile)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AuditHandler.Register(audit)
	}
}
