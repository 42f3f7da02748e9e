package model

import (
	"fmt"
	"strings"
	"time"
)

// Stage is a position in the hiring pipeline.
type Stage string

// Canonical stage vocabulary.
const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTest     Stage = "test"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages lists the canonical stages in pipeline order.
var Stages = []Stage{StageApplied, StageScreen, StageTest, StageOffer, StageHired, StageRejected} //nolint:gochecknoglobals // fixed domain list

// stageAliases maps legacy names onto the canonical vocabulary.
var stageAliases = map[string]Stage{ //nolint:gochecknoglobals // read-only lookup
	"screening":    StageScreen,
	"review":       StageScreen,
	"in_review":    StageScreen,
	"phone-screen": StageScreen,
	"phone_screen": StageScreen,
	"interview":    StageTest,
	"assessment":   StageTest,
	"technical":    StageTest,
	"oa":           StageTest,
	"offered":      StageOffer,
	"hire":         StageHired,
	"reject":       StageRejected,
	"declined":     StageRejected,
}

// ParseStage returns the canonical stage for s, accepting legacy aliases.
func ParseStage(s string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, st := range Stages {
		if key == string(st) {
			return st, nil
		}
	}
	if st, ok := stageAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// CanonicalStage normalizes s for tallies; unknown values pass through lowercased.
func CanonicalStage(s string) string {
	if st, err := ParseStage(s); err == nil {
		return string(st)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// Terminal reports whether no further pipeline movement is expected.
// Informational only; transitions out of terminal stages are accepted.
func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected
}

// StageEntry is one immutable record in a stage history.
type StageEntry struct {
	Stage Stage     `json:"stage"`
	Date  time.Time `json:"date"`
	Notes string    `json:"notes,omitempty"`
}
