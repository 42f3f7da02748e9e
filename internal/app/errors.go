package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrBackpressure = errors.New("call queue is full")
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate idempotency key")
)
