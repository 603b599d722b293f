package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/config"
	"github.com/educasol/educasol-api/internal/handler"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/router"
	"github.com/educasol/educasol-api/internal/schema"
	"github.com/educasol/educasol-api/internal/service"
	"github.com/educasol/educasol-api/pkg/ai"
)

type testStorage struct {
	deletes []string
}

func (s *testStorage) Upload(_ context.Context, name string, _ io.Reader) (string, string, error) {
	return "https://files.test/" + name, name, nil
}

func (s *testStorage) Delete(_ context.Context, path string) error {
	s.deletes = append(s.deletes, path)
	return nil
}

type testGrader struct {
	output ai.GradeOutput
	err    error
}

func (g *testGrader) GradeExam(_ context.Context, _ ai.GradeInput) (ai.GradeOutput, error) {
	if g.err != nil {
		return ai.GradeOutput{}, g.err
	}
	return g.output, nil
}

func (g *testGrader) ComposeLesson(_ context.Context, _ ai.LessonInput) (ai.LessonOutput, error) {
	return ai.LessonOutput{Content: "# Lesson draft"}, nil
}

type testApp struct {
	app     *fiber.App
	db      *gorm.DB
	storage *testStorage
	grader  *testGrader
}

// setupApp wires the full handler stack against sqlite, replacing the JWT
// middleware with a locals setter for the given identity.
func setupApp(t *testing.T, dsn string, userID uint, role string) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Exam{},
		&models.Submission{},
		&models.GradingResult{},
		&models.AuditEntry{},
	))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	guard := service.NewAccessGuard(auditService, logger)

	storage := &testStorage{}
	grader := &testGrader{output: ai.GradeOutput{
		StudentName: "Jane Doe",
		Questions: []ai.GradedQuestion{
			{Number: "1", PointsAwarded: 8},
			{Number: "2", PointsAwarded: 5},
		},
		SummaryComment: "solid work",
		Confidence:     0.9,
	}}

	realtimeService := service.NewRealtimeService(nil, "", nil, logger)

	examService := service.NewExamService(examRepo, guard, auditService, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionServiceDeps{
		Submissions: submissionRepo,
		Exams:       examRepo,
		Storage:     storage,
		Broadcaster: realtimeService,
		Guard:       guard,
		Audit:       auditService,
		MaxBytes:    1024 * 1024,
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

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		ExamHandler:       handler.NewExamHandler(examService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		ExportHandler:     handler.NewExportHandler(exportService, logger),
		VerifyHandler:     handler.NewVerifyHandler(verificationService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return &testApp{app: app, db: db, storage: storage, grader: grader}
}

func (a *testApp) seedPublishedExam(t *testing.T, educatorID uint) models.Exam {
	t.Helper()

	rubric := models.Rubric{
		TotalPoints: 20,
		Questions: []models.RubricQuestion{
			{Number: "1", Topic: "algebra", MaxPoints: 10},
			{Number: "2", Topic: "geometry", MaxPoints: 10},
		},
	}
	encoded, err := schema.EncodeRubric(rubric)
	require.NoError(t, err)

	exam := models.Exam{Title: "Midterm", Status: models.ExamStatusPublished, Rubric: encoded, EducatorID: educatorID}
	require.NoError(t, a.db.Create(&exam).Error)
	return exam
}

func (a *testApp) uploadSubmission(t *testing.T, examID uint, filename string, payload []byte) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("exam_id", strconv.FormatUint(uint64(examID), 10)))
	require.NoError(t, writer.WriteField("student_identifier", "row 4"))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}
