package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/educasol/educasol-api/internal/config"
	"github.com/educasol/educasol-api/internal/database"
	"github.com/educasol/educasol-api/internal/handler"
	"github.com/educasol/educasol-api/internal/middleware"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/router"
	"github.com/educasol/educasol-api/internal/service"
	"github.com/educasol/educasol-api/pkg/ai"
	cloud "github.com/educasol/educasol-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Exam{},
		&models.Submission{},
		&models.GradingResult{},
		&models.Class{},
		&models.LessonPlan{},
		&models.AuditEntry{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, realtime feed runs single-node")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader, err := buildGrader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create AI grader: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	classRepo := repository.NewClassRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	lessonPlanRepo := repository.NewLessonPlanRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	guard := service.NewAccessGuard(auditService, logger)

	realtimeService := service.NewRealtimeService(redisClient, cfg.RealtimeChannel, natsConn, logger)

	examService := service.NewExamService(examRepo, guard, auditService, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionServiceDeps{
		Submissions: submissionRepo,
		Exams:       examRepo,
		Storage:     uploader,
		Broadcaster: realtimeService,
		Guard:       guard,
		Audit:       auditService,
		Cache:       redisClient,
		CacheTTL:    cfg.StatsCacheTTL,
		MaxBytes:    cfg.MaxUploadBytes,
		Validate:    validate,
		Logger:      logger,
	})
	gradingService := service.NewGradingService(service.GradingServiceDeps{
		Submissions: submissionRepo,
		Results:     resultRepo,
		Grader:      grader,
		Broadcaster: realtimeService,
		Guard:       guard,
		Audit:       auditService,
		Validate:    validate,
		Logger:      logger,
	})
	exportService := service.NewExportService(submissionRepo, resultRepo, guard, logger)
	verificationService := service.NewVerificationService(resultRepo, logger)
	classService := service.NewClassService(classRepo, guard, validate, logger)
	lessonPlanService := service.NewLessonPlanService(lessonPlanRepo, grader, guard, validate, logger)
	profileService := service.NewProfileService(profileRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:       handler.NewExamHandler(examService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		ExportHandler:     handler.NewExportHandler(exportService, logger),
		RealtimeHandler:   handler.NewRealtimeHandler(realtimeService, logger),
		ClassHandler:      handler.NewClassHandler(classService, logger),
		LessonPlanHandler: handler.NewLessonPlanHandler(lessonPlanService, logger),
		ProfileHandler:    handler.NewProfileHandler(profileService, logger),
		AuditHandler:      handler.NewAuditHandler(auditService, logger),
		VerifyHandler:     handler.NewVerifyHandler(verificationService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	realtimeService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) (ai.Grader, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return ai.NewAnthropicGrader(ai.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AIModel,
		})
	default:
		return ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
