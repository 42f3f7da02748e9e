package model

import "time"

// Candidate is a person moving through the pipeline.
type Candidate struct {
	Meta
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	Position     string       `json:"position"`
	Stage        Stage        `json:"stage"`
	Location     string       `json:"location,omitempty"`
	Experience   string       `json:"experience,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	StageHistory []StageEntry `json:"stage_history"`
	NoteLog      []Note       `json:"note_log,omitempty"`
}

// Note is an authored comment on a candidate.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Mentions  []string  `json:"mentions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Application links a candidate to a job.
type Application struct {
	Meta
	JobID        int64        `json:"job_id"`
	CandidateID  int64        `json:"candidate_id"`
	Stage        Stage        `json:"stage"`
	AppliedAt    time.Time    `json:"applied_at"`
	StageHistory []StageEntry `json:"stage_history"`
}
