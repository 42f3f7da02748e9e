package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidDocument   = errors.New("document must be a JSON object")
	ErrUnknownCollection = errors.New("unknown collection")
)
