package service

import (
	"strings"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
)

// FilterSubmissions returns the subset of submissions matching every active
// filter predicate. Predicates compose with logical AND; a zero-valued filter
// returns the input unchanged.
func FilterSubmissions(submissions []models.Submission, filters dto.SubmissionFilters) []models.Submission {
	matched := make([]models.Submission, 0, len(submissions))
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	for _, submission := range submissions {
		if filters.ExamID != nil && submission.ExamID != *filters.ExamID {
			continue
		}

		if filters.Status != nil && submission.Status != *filters.Status {
			continue
		}

		// Score bounds only apply to graded submissions that carry a score.
		if filters.MinScore != nil || filters.MaxScore != nil {
			if !submission.IsGraded() || submission.TotalScore == nil {
				continue
			}
			if filters.MinScore != nil && *submission.TotalScore < *filters.MinScore {
				continue
			}
			if filters.MaxScore != nil && *submission.TotalScore > *filters.MaxScore {
				continue
			}
		}

		if search != "" && !strings.Contains(strings.ToLower(submission.StudentIdentifier), search) {
			continue
		}

		matched = append(matched, submission)
	}

	return matched
}

// AggregateStats counts submissions per lifecycle status, grouped by exam, in
// a single pass. Every submission increments total; a submission with an
// unrecognized status increments total only.
func AggregateStats(submissions []models.Submission) map[uint]dto.SubmissionStats {
	stats := make(map[uint]dto.SubmissionStats)

	for _, submission := range submissions {
		entry := stats[submission.ExamID]
		entry.Total++

		switch submission.Status {
		case models.SubmissionStatusUploaded:
			entry.Uploaded++
		case models.SubmissionStatusProcessing:
			entry.Processing++
		case models.SubmissionStatusGraded:
			entry.Graded++
		case models.SubmissionStatusFailed:
			entry.Failed++
		}

		stats[submission.ExamID] = entry
	}

	return stats
}
