package model

import (
	"fmt"
	"regexp"
	"strings"
)

// JobStatus is the publication state of a job.
type JobStatus string

// Known job statuses. Other values are stored as given.
const (
	JobActive   JobStatus = "active"
	JobDraft    JobStatus = "draft"
	JobPaused   JobStatus = "paused"
	JobArchived JobStatus = "archived"
	JobClosed   JobStatus = "closed"
)

// Job is an open or historical position.
type Job struct {
	Meta
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Department  string    `json:"department"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      JobStatus `json:"status"`
	Tags        []string  `json:"tags"`
	// Order is the manual rank used by the jobs board; nil when unranked.
	Order *int `json:"order,omitempty"`
}

// ReorderResult echoes a successful reorder.
type ReorderResult struct {
	Success   bool `json:"success"`
	FromOrder int  `json:"fromOrder"`
	ToOrder   int  `json:"toOrder"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`) //nolint:gochecknoglobals // compiled once

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// JobSlug builds the unique slug for job id. The id suffix keeps two jobs
// with the same title apart.
func JobSlug(title string, id int64) string {
	if base := Slugify(title); base != "" {
		return fmt.Sprintf("%s-%d", base, id)
	}
	return fmt.Sprintf("job-%d", id)
}
