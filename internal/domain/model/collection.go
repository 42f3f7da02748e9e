// Package model contains domain models passed between layers.
package model

import "time"

// Collection names one of the persisted record sets.
type Collection string

// The five persisted collections.
const (
	Jobs                Collection = "jobs"
	Candidates          Collection = "candidates"
	Applications        Collection = "applications"
	Assessments         Collection = "assessments"
	AssessmentResponses Collection = "assessment_responses"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Jobs, Candidates, Applications, Assessments, AssessmentResponses} //nolint:gochecknoglobals // fixed domain list

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Reserved document keys owned by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Meta holds the identity and timestamps every entity carries.
type Meta struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
