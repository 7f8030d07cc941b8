package models

import "errors"

var (
	// ErrNotFound is returned when a single-record lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrMissingTable is returned when the backing table does not exist.
	ErrMissingTable = errors.New("missing table")
	// ErrSolvedIsTerminal rejects any transition away from solved.
	ErrSolvedIsTerminal = errors.New("a solved machine cannot change status")
	// ErrInvalidDateKey is returned for keys that are not YYYY-MM-DD dates.
	ErrInvalidDateKey = errors.New("invalid date key, expected YYYY-MM-DD")
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrValidation wraps input that was rejected before any I/O.
	ErrValidation = errors.New("validation failed")
)
