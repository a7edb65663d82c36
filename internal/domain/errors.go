package domain

import "errors"

// Sentinel errors shared across modules. Wrap them with %w and match with errors.Is.
var (
	// ErrNotFound is returned when a row does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is matched by every upstream rate-limit or quota error.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrUnavailable marks an upstream collaborator that could not answer.
	ErrUnavailable = errors.New("upstream unavailable")
)
