package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/educasol/educasol-api/internal/models"
)

func newExportService(t *testing.T, token string) ExportService {
	t.Helper()
	repo := seededVerificationRepo(t, token)
	guard := NewAccessGuard(&recordingAudit{}, zerolog.Nop())
	return NewExportService(newStubSubmissionRepo(), repo, guard, zerolog.Nop())
}

func TestExportCSV(t *testing.T) {
	svc := newExportService(t, uuid.NewString())

	payload, filename, err := svc.ExportCSV(context.Background(), educatorActor(), 1)
	require.NoError(t, err)
	require.Equal(t, "submission-1-results.csv", filename)
	require.True(t, bytes.HasPrefix(payload, []byte{0xEF, 0xBB, 0xBF}))

	reader := csv.NewReader(bytes.NewReader(payload[3:]))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, csvHeader, rows[0])

	// Question 1 keeps the AI score.
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "8", rows[1][2])
	require.Equal(t, "no", rows[1][4])
	require.Empty(t, rows[1][5])

	// Question 2 carries an override with its original score.
	require.Equal(t, "2", rows[2][0])
	require.Equal(t, "7", rows[2][2])
	require.Equal(t, "yes", rows[2][4])
	require.Equal(t, "5", rows[2][5])
}

func TestExportHTML(t *testing.T) {
	token := uuid.NewString()
	svc := newExportService(t, token)

	payload, filename, err := svc.ExportHTML(context.Background(), educatorActor(), 1)
	require.NoError(t, err)
	require.Equal(t, "submission-1-report.html", filename)

	report := string(payload)
	require.Contains(t, report, "Midterm")
	require.Contains(t, report, "jane doe")
	require.Contains(t, report, "<strong>15 / 20</strong>")
	require.Contains(t, report, `class="overridden"`)
	require.Contains(t, report, "7 (was 5)")
	require.Contains(t, report, token)
}

func TestExportDeniesOtherEducator(t *testing.T) {
	svc := newExportService(t, uuid.NewString())

	_, _, err := svc.ExportCSV(context.Background(), Actor{ID: 2, Role: models.RoleEducator}, 1)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestExportMissingResult(t *testing.T) {
	svc := newExportService(t, uuid.NewString())

	_, _, err := svc.ExportHTML(context.Background(), educatorActor(), 99)
	require.ErrorIs(t, err, ErrResultNotFound)
}
