package ai

import "context"

// GradeQuestion carries one rubric question into a grading request.
type GradeQuestion struct {
	Number         string
	Topic          string
	MaxPoints      float64
	ExpectedAnswer string
	Keywords       []string
	PartialCredit  string
}

// GradeInput contains the artefacts needed to grade a scanned exam paper.
type GradeInput struct {
	ExamTitle         string
	Instructions      string
	Questions         []GradeQuestion
	FileURL           string
	FileType          string
	StudentIdentifier string
}

// GradedQuestion is the model verdict for a single question.
type GradedQuestion struct {
	Number        string  `json:"number"`
	PointsAwarded float64 `json:"points_awarded"`
	Correct       bool    `json:"correct"`
	Transcription string  `json:"transcription"`
	Reasoning     string  `json:"reasoning"`
	Feedback      string  `json:"feedback"`
}

// GradeOutput is the structured grading artefact returned by the model.
type GradeOutput struct {
	StudentName        string                 `json:"student_name"`
	StudentID          string                 `json:"student_id"`
	HandwritingQuality string                 `json:"handwriting_quality"`
	Questions          []GradedQuestion       `json:"questions"`
	SummaryComment     string                 `json:"summary_comment"`
	Confidence         float64                `json:"confidence"`
	Raw                map[string]interface{} `json:"raw,omitempty"`
}

// LessonInput describes the lesson draft an educator asked for.
type LessonInput struct {
	Topic      string
	Subject    string
	GradeLevel string
}

// LessonOutput is the generated lesson content.
type LessonOutput struct {
	Content string                 `json:"content"`
	Raw     map[string]interface{} `json:"raw,omitempty"`
}

// Grader describes an AI model capable of grading exam papers and composing
// lesson drafts.
type Grader interface {
	GradeExam(ctx context.Context, input GradeInput) (GradeOutput, error)
	ComposeLesson(ctx context.Context, input LessonInput) (LessonOutput, error)
}
