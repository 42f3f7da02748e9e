package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/talentflow/internal/adapters/repository"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/fault"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/relation"
	"github.com/okian/talentflow/internal/domain/resolver"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("route not found")
)

// Error codes carried in the error envelope.
const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeDuplicate        = "duplicate"
	codeBackpressure     = "backpressure"
	codeSimulatedFailure = "simulated_failure"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal_error"
)

// Wrap prefixes err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind tags err with kind so callers can match either.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// classify maps an error to its HTTP status and envelope code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidStage),
		errors.Is(err, repository.ErrInvalidDocument),
		errors.Is(err, relation.ErrInvalidDocument):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrDuplicate):
		return http.StatusConflict, codeDuplicate
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, fault.ErrSimulated):
		return http.StatusInternalServerError, codeSimulatedFailure
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
