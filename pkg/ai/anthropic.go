package ai

import (
	"context"
	"fmt"
)

// AnthropicConfig placeholder for anthropic integration configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicGrader is a stub implementation that can be expanded once the SDK is available.
type AnthropicGrader struct{}

// NewAnthropicGrader constructs a new stub grader.
func NewAnthropicGrader(cfg AnthropicConfig) (*AnthropicGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &AnthropicGrader{}, nil
}

// GradeExam is not yet implemented for Anthropic models.
func (a *AnthropicGrader) GradeExam(ctx context.Context, input GradeInput) (GradeOutput, error) {
	return GradeOutput{}, fmt.Errorf("anthropic grader not implemented")
}

// ComposeLesson is not yet implemented for Anthropic models.
func (a *AnthropicGrader) ComposeLesson(ctx context.Context, input LessonInput) (LessonOutput, error) {
	return LessonOutput{}, fmt.Errorf("anthropic grader not implemented")
}
