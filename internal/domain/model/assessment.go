package model

import "time"

// QuestionType selects how a question is answered.
type QuestionType string

// Supported question types.
const (
	SingleChoice QuestionType = "single-choice"
	MultiChoice  QuestionType = "multi-choice"
	ShortText    QuestionType = "short-text"
	LongText     QuestionType = "long-text"
	Numeric      QuestionType = "numeric"
	FileUpload   QuestionType = "file-upload"
)

// Question is one item of an assessment. CorrectAnswer is optional; only
// questions that carry one take part in scoring.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Title         string       `json:"title"`
	Required      bool         `json:"required,omitempty"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer any          `json:"correct_answer,omitempty"`
	MinValue      *float64     `json:"min_value,omitempty"`
	MaxValue      *float64     `json:"max_value,omitempty"`
	MaxLength     int          `json:"max_length,omitempty"`
}

// Assessment is a questionnaire, optionally bound to a job.
type Assessment struct {
	Meta
	JobID       *int64     `json:"job_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// AssessmentResponse is one submission of an assessment by a candidate.
type AssessmentResponse struct {
	Meta
	AssessmentID int64          `json:"assessment_id"`
	CandidateID  int64          `json:"candidate_id"`
	JobID        *int64         `json:"job_id"`
	Responses    map[string]any `json:"responses"`
	Score        float64        `json:"score"`
	CompletedAt  time.Time      `json:"completed_at"`
}
