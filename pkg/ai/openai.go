package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "educasol",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI grading and composition requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "educasol",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI request failures",
	}, []string{"model", "operation"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/educasol/educasol-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// GradeExam sends the exam paper and rubric to OpenAI and parses the verdict.
func (g *OpenAIGrader) GradeExam(parent context.Context, input GradeInput) (GradeOutput, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade_exam", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("file_type", input.FileType),
		attribute.Int("questions", len(input.Questions)),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			buildGradeMessage(input),
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model, "grade").Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model, "grade").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeOutput{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(g.cfg.Model, "grade").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeOutput{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	output, err := parseGradeResponse(content, input.Questions)
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model, "grade").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeOutput{}, err
	}

	output.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return output, nil
}

// ComposeLesson asks OpenAI for a lesson plan draft on the given topic.
func (g *OpenAIGrader) ComposeLesson(parent context.Context, input LessonInput) (LessonOutput, error) {
	ctx, span := g.tracer.Start(parent, "openai.compose_lesson", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: composerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildLessonPrompt(input),
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model, "compose").Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model, "compose").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LessonOutput{}, fmt.Errorf("openai compose: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(g.cfg.Model, "compose").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LessonOutput{}, err
	}

	return LessonOutput{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Raw: map[string]interface{}{
			"usage": resp.Usage,
		},
	}, nil
}

func graderSystemPrompt() string {
	return "You are an exam grading assistant. You receive a scoring rubric and a scanned student exam paper. " +
		"Transcribe each handwritten answer, score it against the rubric, and respond with a JSON object containing " +
		"student_name, student_id, handwriting_quality (excellent|good|fair|poor), questions (array of {number, " +
		"points_awarded, correct, transcription, reasoning, feedback}), summary_comment, and confidence (0-1). " +
		"Never award more than a question's maximum points."
}

func composerSystemPrompt() string {
	return "You are a lesson planning assistant for teachers. Produce a complete, classroom-ready lesson plan in " +
		"simple HTML (headings, paragraphs, lists only) with objectives, materials, activities, and an assessment idea."
}

func buildGradeMessage(input GradeInput) openai.ChatCompletionMessage {
	prompt := buildGradePrompt(input)

	if input.FileType == "jpeg" || input.FileType == "png" {
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: input.FileURL}},
			},
		}
	}

	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt + "\n\n## Paper\n" + input.FileURL,
	}
}

func buildGradePrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Exam\n")
	builder.WriteString(input.ExamTitle)
	if input.StudentIdentifier != "" {
		builder.WriteString("\n\n## Student Identifier\n")
		builder.WriteString(input.StudentIdentifier)
	}
	if input.Instructions != "" {
		builder.WriteString("\n\n## Grading Instructions\n")
		builder.WriteString(input.Instructions)
	}
	builder.WriteString("\n\n## Rubric\n")
	for _, q := range input.Questions {
		builder.WriteString(fmt.Sprintf("- Question %s (%.1f points)", q.Number, q.MaxPoints))
		if q.Topic != "" {
			builder.WriteString(" topic: " + q.Topic)
		}
		if q.ExpectedAnswer != "" {
			builder.WriteString(" expected: " + q.ExpectedAnswer)
		}
		if len(q.Keywords) > 0 {
			builder.WriteString(" keywords: " + strings.Join(q.Keywords, ", "))
		}
		if q.PartialCredit != "" {
			builder.WriteString(" partial credit: " + q.PartialCredit)
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func buildLessonPrompt(input LessonInput) string {
	builder := strings.Builder{}
	builder.WriteString("Topic: ")
	builder.WriteString(input.Topic)
	if input.Subject != "" {
		builder.WriteString("\nSubject: ")
		builder.WriteString(input.Subject)
	}
	if input.GradeLevel != "" {
		builder.WriteString("\nGrade level: ")
		builder.WriteString(input.GradeLevel)
	}
	return builder.String()
}

func parseGradeResponse(content string, rubric []GradeQuestion) (GradeOutput, error) {
	var output GradeOutput
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return GradeOutput{}, fmt.Errorf("parse grading json: %w", err)
	}

	if output.Confidence < 0 {
		output.Confidence = 0
	}
	if output.Confidence > 1 {
		output.Confidence = 1
	}

	maxByNumber := make(map[string]float64, len(rubric))
	for _, q := range rubric {
		maxByNumber[q.Number] = q.MaxPoints
	}

	for i := range output.Questions {
		if output.Questions[i].PointsAwarded < 0 {
			output.Questions[i].PointsAwarded = 0
		}
		if max, ok := maxByNumber[output.Questions[i].Number]; ok && output.Questions[i].PointsAwarded > max {
			output.Questions[i].PointsAwarded = max
		}
	}

	return output, nil
}
