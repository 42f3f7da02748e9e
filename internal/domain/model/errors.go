package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrInvalidStage = errors.New("invalid stage")
)
