package handler_test

import (
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
)

func examPayload(totalPoints float64) map[string]interface{} {
	return map[string]interface{}{
		"title":       "Algebra Midterm",
		"description": "chapters 1 through 4",
		"rubric": map[string]interface{}{
			"total_points": totalPoints,
			"questions": []map[string]interface{}{
				{"number": "1", "topic": "linear equations", "max_points": 10},
				{"number": "2", "topic": "quadratics", "max_points": 10},
			},
		},
	}
}

func TestExamHandlerLifecycle(t *testing.T) {
	fixture := setupApp(t, "file:handler_exam_crud?mode=memory&cache=shared", 1, models.RoleEducator)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/exams", examPayload(20)), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool             `json:"success"`
		Data    dto.ExamResponse `json:"data"`
		Message string           `json:"message"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "exam created", created.Message)
	require.NotZero(t, created.Data.ID)
	require.Equal(t, models.ExamStatusDraft, created.Data.Status)
	require.Len(t, created.Data.Rubric.Questions, 2)

	examID := strconv.FormatUint(uint64(created.Data.ID), 10)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/exams/"+examID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodPut, "/api/v1/exams/"+examID, map[string]interface{}{"status": "published"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated struct {
		Data dto.ExamResponse `json:"data"`
	}
	decodeResponse(t, resp, &updated)
	require.Equal(t, models.ExamStatusPublished, updated.Data.Status)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/exams?status=published", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []dto.ExamResponse `json:"data"`
	}
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 1)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodDelete, "/api/v1/exams/"+examID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/exams/"+examID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExamHandlerRejectsMismatchedRubricTotal(t *testing.T) {
	fixture := setupApp(t, "file:handler_exam_rubric?mode=memory&cache=shared", 1, models.RoleEducator)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/exams", examPayload(25)), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var failed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &failed)
	require.False(t, failed.Success)
	require.Contains(t, failed.Message, "does not match")
}

func TestExamHandlerDeleteConflictsWithSubmissions(t *testing.T) {
	fixture := setupApp(t, "file:handler_exam_conflict?mode=memory&cache=shared", 1, models.RoleEducator)

	exam := fixture.seedPublishedExam(t, 1)
	require.NoError(t, fixture.db.Create(&models.Submission{
		ExamID:   exam.ID,
		FileType: "pdf",
		Status:   models.SubmissionStatusUploaded,
	}).Error)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodDelete, "/api/v1/exams/"+strconv.FormatUint(uint64(exam.ID), 10), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestExamHandlerHidesOtherEducatorsExams(t *testing.T) {
	fixture := setupApp(t, "file:handler_exam_foreign?mode=memory&cache=shared", 2, models.RoleEducator)

	exam := fixture.seedPublishedExam(t, 1)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/exams/"+strconv.FormatUint(uint64(exam.ID), 10), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestExamHandlerRequiresEducatorRole(t *testing.T) {
	fixture := setupApp(t, "file:handler_exam_role?mode=memory&cache=shared", 1, "student")

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/exams", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
