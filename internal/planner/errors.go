package planner

import "errors"

var (
	// ErrInvalidRequest is the only synthesis failure reported to callers.
	ErrInvalidRequest  = errors.New("planner: invalid planning request")
	ErrSessionNotFound = errors.New("planner: session not found")

	// errMalformedOutput marks oracle text that cannot become a schedule.
	errMalformedOutput = errors.New("planner: malformed oracle output")
)
