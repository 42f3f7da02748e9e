// Package types contains the response envelopes shared across the application
package types

// Pagination describes one page of a filtered, sorted result.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPagination computes the page arithmetic for total records.
// Page and limit must already be normalized (both >= 1).
func NewPagination(page, limit, total int) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	_, end := Bounds(page, limit, total)
	p.HasMore = end < total
	return p
}

// Bounds returns the slice offsets for page within total records. A page
// past the last one yields an empty range at total.
func Bounds(page, limit, total int) (start, end int) {
	if page < 1 || limit < 1 {
		return 0, 0
	}
	// compare in pages so (page-1)*limit cannot overflow
	if page-1 >= (total+limit-1)/limit {
		return total, total
	}
	start = (page - 1) * limit
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

// Page is the list envelope returned by every list operation.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Success is the body returned by deletes and bulk updates.
type Success struct {
	Success bool `json:"success"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalJobs           int            `json:"total_jobs"`
	ActiveJobs          int            `json:"active_jobs"`
	TotalCandidates     int            `json:"total_candidates"`
	TotalApplications   int            `json:"total_applications"`
	TotalAssessments    int            `json:"total_assessments"`
	TotalResponses      int            `json:"total_responses"`
	JobsByStatus        map[string]int `json:"jobs_by_status"`
	CandidatesByStage   map[string]int `json:"candidates_by_stage"`
	ApplicationsByStage map[string]int `json:"applications_by_stage"`
	AverageScore        float64        `json:"average_score"`
}

// Pipeline is the per-job application count by stage.
type Pipeline struct {
	JobID   int64          `json:"job_id"`
	Total   int            `json:"total"`
	ByStage map[string]int `json:"by_stage"`
}
