// Package schema validates JSON persisted in rubric and grading-result columns
// so that corrupt stored data surfaces as an error instead of silently
// violating domain invariants.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/educasol/educasol-api/internal/models"
)

const rubricSchema = `{
	"type": "object",
	"required": ["total_points", "questions"],
	"properties": {
		"title": {"type": "string"},
		"total_points": {"type": "number", "exclusiveMinimum": 0},
		"grading_instructions": {"type": "string"},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["number", "max_points"],
				"properties": {
					"number": {"type": "string", "minLength": 1},
					"topic": {"type": "string"},
					"max_points": {"type": "number", "exclusiveMinimum": 0},
					"expected_answer": {"type": "string"},
					"keywords": {"type": "array", "items": {"type": "string"}},
					"partial_credit": {"type": "string"}
				}
			}
		}
	}
}`

const questionsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["number", "points_awarded", "max_points"],
		"properties": {
			"number": {"type": "string", "minLength": 1},
			"points_awarded": {"type": "number", "minimum": 0},
			"max_points": {"type": "number", "exclusiveMinimum": 0},
			"correct": {"type": "boolean"},
			"transcription": {"type": "string"},
			"reasoning": {"type": "string"},
			"feedback": {"type": "string"}
		}
	}
}`

const overridesSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"required": ["question_number", "original_score", "override_score"],
		"properties": {
			"question_number": {"type": "string", "minLength": 1},
			"original_score": {"type": "number"},
			"override_score": {"type": "number", "minimum": 0},
			"overridden_at": {"type": "string"}
		}
	}
}`

var (
	rubricValidator    = jsonschema.MustCompileString("rubric.schema.json", rubricSchema)
	questionsValidator = jsonschema.MustCompileString("questions.schema.json", questionsSchema)
	overridesValidator = jsonschema.MustCompileString("overrides.schema.json", overridesSchema)
)

func validate(sch *jsonschema.Schema, data []byte, target interface{}) error {
	var generic interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	if err := sch.Validate(generic); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	return json.Unmarshal(data, target)
}

// DecodeRubric parses and validates a stored rubric document.
func DecodeRubric(data []byte) (models.Rubric, error) {
	if len(data) == 0 {
		return models.Rubric{}, fmt.Errorf("rubric document is empty")
	}

	var rubric models.Rubric
	if err := validate(rubricValidator, data, &rubric); err != nil {
		return models.Rubric{}, fmt.Errorf("invalid rubric: %w", err)
	}

	return rubric, nil
}

// EncodeRubric serializes a rubric, validating the output before it is persisted.
func EncodeRubric(rubric models.Rubric) ([]byte, error) {
	data, err := json.Marshal(rubric)
	if err != nil {
		return nil, fmt.Errorf("marshal rubric: %w", err)
	}

	if _, err := DecodeRubric(data); err != nil {
		return nil, err
	}

	return data, nil
}

// DecodeQuestions parses and validates stored per-question grading results.
func DecodeQuestions(data []byte) ([]models.QuestionResult, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var questions []models.QuestionResult
	if err := validate(questionsValidator, data, &questions); err != nil {
		return nil, fmt.Errorf("invalid question results: %w", err)
	}

	return questions, nil
}

// DecodeOverrides parses and validates the stored override map.
func DecodeOverrides(data []byte) (map[string]models.QuestionOverride, error) {
	if len(data) == 0 {
		return map[string]models.QuestionOverride{}, nil
	}

	overrides := map[string]models.QuestionOverride{}
	if err := validate(overridesValidator, data, &overrides); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}

	return overrides, nil
}

// EncodeOverrides serializes the override map for persistence.
func EncodeOverrides(overrides map[string]models.QuestionOverride) ([]byte, error) {
	if overrides == nil {
		overrides = map[string]models.QuestionOverride{}
	}

	data, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("marshal overrides: %w", err)
	}

	return data, nil
}

// EncodeQuestions serializes question results for persistence.
func EncodeQuestions(questions []models.QuestionResult) ([]byte, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal question results: %w", err)
	}

	return data, nil
}
