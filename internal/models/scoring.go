package models

import "time"

// GetOverride returns the override stored for the given question number, or
// nil when the AI score stands. The override map is keyed by question number,
// so the last override applied for a number is the only one visible.
func (s ResultSheet) GetOverride(questionNumber string) *QuestionOverride {
	if s.Overrides == nil {
		return nil
	}

	if override, ok := s.Overrides[questionNumber]; ok {
		return &override
	}

	return nil
}

// FinalScore sums the effective score of every question: the override score
// when one exists, the AI-awarded points otherwise.
func (s ResultSheet) FinalScore() float64 {
	var total float64
	for _, question := range s.Questions {
		if override := s.GetOverride(question.Number); override != nil {
			total += override.OverrideScore
			continue
		}
		total += question.PointsAwarded
	}

	return total
}

// EffectiveScore returns the score counted for a single question.
func (s ResultSheet) EffectiveScore(question QuestionResult) float64 {
	if override := s.GetOverride(question.Number); override != nil {
		return override.OverrideScore
	}
	return question.PointsAwarded
}

// SetOverride records a teacher correction for a question. Setting a score
// equal to the AI original removes any stored override instead of keeping a
// no-op entry, so "adjusted" markers never appear for unchanged scores.
// It returns true when an override is stored, false when it was cleared.
func (s *ResultSheet) SetOverride(question QuestionResult, score float64, now time.Time) bool {
	if s.Overrides == nil {
		s.Overrides = map[string]QuestionOverride{}
	}

	if score == question.PointsAwarded {
		delete(s.Overrides, question.Number)
		return false
	}

	s.Overrides[question.Number] = QuestionOverride{
		QuestionNumber: question.Number,
		OriginalScore:  question.PointsAwarded,
		OverrideScore:  score,
		OverriddenAt:   now,
	}

	return true
}

// QuestionByNumber returns the AI result for a question number, or nil.
func (s ResultSheet) QuestionByNumber(number string) *QuestionResult {
	for i := range s.Questions {
		if s.Questions[i].Number == number {
			return &s.Questions[i]
		}
	}
	return nil
}
