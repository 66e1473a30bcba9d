package domain

import "errors"

var (
	// Error kinds surfaced by the promotion core.
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("entity not found")
	ErrConflict    = errors.New("unique code collision")
	ErrRateLimited = errors.New("already claimed today")
	ErrGone        = errors.New("promotion expired or inactive")
	ErrForbidden   = errors.New("forbidden")
	ErrTransient   = errors.New("transient store contention")

	// Store plumbing errors.
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
