package query

import "github.com/okian/talentflow/internal/domain/model"

// Kind is a comparison hint for a sortable field.
type Kind string

// Comparison kinds.
const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Descriptor parameterizes the pipeline for one collection.
// An empty Searchable list means every top-level field is searched.
type Descriptor struct {
	Searchable []string
	Filters    []string
	SortHints  map[string]Kind
}

// HasFilter reports whether key is a filter the descriptor honors.
func (d Descriptor) HasFilter(key string) bool {
	for _, f := range d.Filters {
		if f == key {
			return true
		}
	}
	return false
}

var descriptors = map[model.Collection]Descriptor{ //nolint:gochecknoglobals // read-only table
	model.Jobs: {
		Searchable: []string{"title", "department", "location", "tags", "slug", "status"},
		Filters:    []string{"department", "status", "location", "tags"},
		SortHints:  map[string]Kind{"order": KindNumber, "title": KindString},
	},
	model.Candidates: {
		Searchable: []string{"name", "email", "position", "location", "phone"},
		Filters:    []string{"position", "stage", "location", "experience"},
		SortHints:  map[string]Kind{"name": KindString},
	},
	model.Applications: {
		Filters:   []string{"job_id", "candidate_id", "stage"},
		SortHints: map[string]Kind{"applied_at": KindDate},
	},
	model.Assessments: {
		Searchable: []string{"title", "description"},
		Filters:    []string{"job_id"},
		SortHints:  map[string]Kind{"title": KindString},
	},
	model.AssessmentResponses: {
		Filters:   []string{"assessment_id", "candidate_id", "job_id"},
		SortHints: map[string]Kind{"score": KindNumber, "completed_at": KindDate},
	},
}

// For returns the descriptor registered for c. Unknown collections get an
// empty descriptor, which searches every field and honors no filters.
func For(c model.Collection) Descriptor {
	return descriptors[c]
}
