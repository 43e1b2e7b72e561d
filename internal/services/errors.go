package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthenticated ErrorCode = "unauthenticated"
	ErrorDataIntegrity   ErrorCode = "data_integrity"
	ErrorTransient       ErrorCode = "transient"
)

// ServiceError carries a machine-readable code alongside the message so the
// HTTP layer can map failures without string matching.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewUnauthenticatedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthenticated, Message: msg}
}

// NewDataIntegrityError flags a violated referential invariant (e.g. a
// response whose question is missing). Callers must log it with context and
// surface a generic failure, never coerce it into a zero score.
func NewDataIntegrityError(msg string) error {
	return &ServiceError{Code: ErrorDataIntegrity, Message: msg}
}

// NewTransientError marks a storage-layer timeout or connection failure that
// is safe for the caller to retry with backoff.
func NewTransientError(msg string) error {
	return &ServiceError{Code: ErrorTransient, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
