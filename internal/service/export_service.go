package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/internal/schema"
)

// utf8BOM makes spreadsheet applications detect the encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"question",
	"topic",
	"score",
	"max_points",
	"overridden",
	"original_score",
	"correct",
	"transcription",
	"reasoning",
	"feedback",
}

// ExportService renders grading results as downloadable artefacts.
type ExportService interface {
	ExportCSV(ctx context.Context, actor Actor, submissionID uint) ([]byte, string, error)
	ExportHTML(ctx context.Context, actor Actor, submissionID uint) ([]byte, string, error)
}

type exportService struct {
	submissions repository.SubmissionRepository
	results     repository.ResultRepository
	guard       *AccessGuard
	logger      zerolog.Logger
	report      *template.Template
	now         func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(submissions repository.SubmissionRepository, results repository.ResultRepository, guard *AccessGuard, logger zerolog.Logger) ExportService {
	return &exportService{
		submissions: submissions,
		results:     results,
		guard:       guard,
		logger:      logger.With().Str("component", "export_service").Logger(),
		report:      template.Must(template.New("report").Parse(reportTemplate)),
		now:         time.Now,
	}
}

func (s *exportService) ExportCSV(ctx context.Context, actor Actor, submissionID uint) ([]byte, string, error) {
	result, sheet, err := s.loadOwnedResult(ctx, actor, submissionID, "export.csv")
	if err != nil {
		return nil, "", err
	}

	rubric, err := schema.DecodeRubric(result.Submission.Exam.Rubric)
	if err != nil {
		return nil, "", fmt.Errorf("decode rubric: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}

	for _, question := range sheet.Questions {
		topic := ""
		if rubricQuestion := rubric.Question(question.Number); rubricQuestion != nil {
			topic = rubricQuestion.Topic
		}

		override := sheet.GetOverride(question.Number)
		overridden := "no"
		originalScore := ""
		if override != nil {
			overridden = "yes"
			originalScore = formatScore(override.OriginalScore)
		}

		row := []string{
			question.Number,
			topic,
			formatScore(sheet.EffectiveScore(question)),
			formatScore(question.MaxPoints),
			overridden,
			originalScore,
			strconv.FormatBool(question.Correct),
			question.Transcription,
			question.Reasoning,
			question.Feedback,
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("submission-%d-results.csv", submissionID)
	return buf.Bytes(), filename, nil
}

// reportRow is one question line in the HTML report.
type reportRow struct {
	Number         string
	Topic          string
	EffectiveScore string
	MaxPoints      string
	Overridden     bool
	OriginalScore  string
	Correct        bool
	Transcription  string
	Feedback       string
}

type reportData struct {
	ExamTitle         string
	StudentName       string
	StudentIdentifier string
	FinalScore        string
	TotalPoints       string
	Confidence        string
	SummaryComment    string
	VerificationToken string
	GeneratedAt       string
	Rows              []reportRow
}

func (s *exportService) ExportHTML(ctx context.Context, actor Actor, submissionID uint) ([]byte, string, error) {
	result, sheet, err := s.loadOwnedResult(ctx, actor, submissionID, "export.html")
	if err != nil {
		return nil, "", err
	}

	rubric, err := schema.DecodeRubric(result.Submission.Exam.Rubric)
	if err != nil {
		return nil, "", fmt.Errorf("decode rubric: %w", err)
	}

	data := reportData{
		ExamTitle:         result.Submission.Exam.Title,
		StudentName:       result.StudentName,
		StudentIdentifier: result.Submission.StudentIdentifier,
		FinalScore:        formatScore(sheet.FinalScore()),
		TotalPoints:       formatScore(rubric.TotalPoints),
		Confidence:        fmt.Sprintf("%.0f%%", result.Confidence*100),
		SummaryComment:    result.SummaryComment,
		VerificationToken: result.VerificationToken,
		GeneratedAt:       s.now().UTC().Format(time.RFC3339),
	}

	for _, question := range sheet.Questions {
		row := reportRow{
			Number:         question.Number,
			EffectiveScore: formatScore(sheet.EffectiveScore(question)),
			MaxPoints:      formatScore(question.MaxPoints),
			Correct:        question.Correct,
			Transcription:  question.Transcription,
			Feedback:       question.Feedback,
		}
		if rubricQuestion := rubric.Question(question.Number); rubricQuestion != nil {
			row.Topic = rubricQuestion.Topic
		}
		if override := sheet.GetOverride(question.Number); override != nil {
			row.Overridden = true
			row.OriginalScore = formatScore(override.OriginalScore)
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := s.report.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("render report: %w", err)
	}

	filename := fmt.Sprintf("submission-%d-report.html", submissionID)
	return buf.Bytes(), filename, nil
}

func (s *exportService) loadOwnedResult(ctx context.Context, actor Actor, submissionID uint, action string) (models.GradingResult, models.ResultSheet, error) {
	result, err := s.results.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.GradingResult{}, models.ResultSheet{}, ErrResultNotFound
		}
		return models.GradingResult{}, models.ResultSheet{}, err
	}

	decision := CheckSubmissionView(SubmissionAccessContext{
		Actor:          actor,
		ExamEducatorID: result.Submission.Exam.EducatorID,
		ExamSchoolID:   result.Submission.Exam.SchoolID,
	})
	id := submissionID
	if err := s.guard.Enforce(ctx, actor, decision, action, "submission", &id); err != nil {
		return models.GradingResult{}, models.ResultSheet{}, err
	}

	questions, err := schema.DecodeQuestions(result.Questions)
	if err != nil {
		return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("decode questions: %w", err)
	}

	overrides := map[string]models.QuestionOverride{}
	if len(result.Overrides) > 0 {
		overrides, err = schema.DecodeOverrides(result.Overrides)
		if err != nil {
			return models.GradingResult{}, models.ResultSheet{}, fmt.Errorf("decode overrides: %w", err)
		}
	}

	return result, models.ResultSheet{Questions: questions, Overrides: overrides}, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.ExamTitle}} - Grading Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.5rem; text-align: left; vertical-align: top; }
th { background: #f3f4f6; }
.overridden { background: #fef9c3; }
.summary { margin-top: 1.5rem; padding: 1rem; background: #f8fafc; border: 1px solid #e2e8f0; }
.meta { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>{{.ExamTitle}}</h1>
<p class="meta">
Student: {{if .StudentName}}{{.StudentName}}{{else}}{{.StudentIdentifier}}{{end}}<br>
Final score: <strong>{{.FinalScore}} / {{.TotalPoints}}</strong><br>
Grader confidence: {{.Confidence}}<br>
Generated: {{.GeneratedAt}}
</p>
<table>
<thead>
<tr><th>Question</th><th>Topic</th><th>Score</th><th>Max</th><th>Correct</th><th>Transcription</th><th>Feedback</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr{{if .Overridden}} class="overridden"{{end}}>
<td>{{.Number}}</td>
<td>{{.Topic}}</td>
<td>{{.EffectiveScore}}{{if .Overridden}} (was {{.OriginalScore}}){{end}}</td>
<td>{{.MaxPoints}}</td>
<td>{{if .Correct}}yes{{else}}no{{end}}</td>
<td>{{.Transcription}}</td>
<td>{{.Feedback}}</td>
</tr>
{{end}}
</tbody>
</table>
{{if .SummaryComment}}
<div class="summary">
<h2>Summary</h2>
<p>{{.SummaryComment}}</p>
</div>
{{end}}
<p class="meta">Verification token: {{.VerificationToken}}</p>
</body>
</html>
`
