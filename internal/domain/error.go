package domain

import "errors"

var (
	// Job lifecycle errors
	ErrUnauthorized      = errors.New("unauthorized")
	ErrBadRequest        = errors.New("bad request")
	ErrProviderFailure   = errors.New("ocr provider failure")
	ErrInternal          = errors.New("internal error")
	ErrInvalidTransition = errors.New("invalid job status transition")

	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// ProviderError carries the provider's message for a job that was moved to failed.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return ErrProviderFailure }
