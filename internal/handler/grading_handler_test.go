package handler_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
)

func seedUploadedSubmission(t *testing.T, fixture *testApp, examID uint) models.Submission {
	t.Helper()

	submission := models.Submission{
		ExamID:            examID,
		StudentIdentifier: "row 4",
		FileURL:           "https://files.test/paper.pdf",
		FileType:          "pdf",
		Status:            models.SubmissionStatusUploaded,
	}
	require.NoError(t, fixture.db.Create(&submission).Error)
	return submission
}

func TestGradingHandlerAnalyzeAndOverride(t *testing.T) {
	fixture := setupApp(t, "file:handler_grading?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	base := fmt.Sprintf("/api/v1/submissions/%d", submission.ID)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/analyze", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var analyzed struct {
		Data dto.GradingResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &analyzed)
	require.Equal(t, 13.0, analyzed.Data.FinalScore)
	require.Equal(t, "Jane Doe", analyzed.Data.StudentName)
	require.NotEmpty(t, analyzed.Data.VerificationToken)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/override", dto.OverrideRequest{QuestionNumber: "2", Score: 9}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var overridden struct {
		Data dto.GradingResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &overridden)
	require.Equal(t, 17.0, overridden.Data.FinalScore)
	require.True(t, overridden.Data.Questions[1].Overridden)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, base+"/result", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loaded struct {
		Data dto.GradingResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &loaded)
	require.Equal(t, 17.0, loaded.Data.FinalScore)
}

func TestGradingHandlerAnalyzeFailureReturnsError(t *testing.T) {
	fixture := setupApp(t, "file:handler_grading_fail?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	fixture.grader.err = errors.New("model timeout")

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/analyze", submission.ID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var stored models.Submission
	require.NoError(t, fixture.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusFailed, stored.Status)
	require.Equal(t, "model timeout", stored.ErrorMessage)
}

func TestGradingHandlerOverrideValidation(t *testing.T) {
	fixture := setupApp(t, "file:handler_grading_override?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	base := fmt.Sprintf("/api/v1/submissions/%d", submission.ID)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/analyze", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/override", dto.OverrideRequest{QuestionNumber: "9", Score: 5}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/override", dto.OverrideRequest{QuestionNumber: "1", Score: 11}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradingHandlerResultBeforeAnalysis(t *testing.T) {
	fixture := setupApp(t, "file:handler_grading_noresult?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodGet, fmt.Sprintf("/api/v1/submissions/%d/result", submission.ID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExportHandlerCSV(t *testing.T) {
	fixture := setupApp(t, "file:handler_export_csv?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	base := fmt.Sprintf("/api/v1/submissions/%d", submission.ID)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/analyze", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, base+"/export/csv", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.True(t, strings.HasPrefix(string(payload), "\xEF\xBB\xBF"))
	require.Contains(t, string(payload), "question,topic,score")
}

func TestExportHandlerHTMLReport(t *testing.T) {
	fixture := setupApp(t, "file:handler_export_html?mode=memory&cache=shared", 1, models.RoleEducator)
	exam := fixture.seedPublishedExam(t, 1)
	submission := seedUploadedSubmission(t, fixture, exam.ID)

	base := fmt.Sprintf("/api/v1/submissions/%d", submission.ID)

	resp, err := fixture.app.Test(jsonRequest(t, fiber.MethodPost, base+"/analyze", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = fixture.app.Test(jsonRequest(t, fiber.MethodGet, base+"/export/report", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(payload), exam.Title)
	require.Contains(t, string(payload), "Jane Doe")
}
