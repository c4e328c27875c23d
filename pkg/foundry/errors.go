package foundry

import "errors"

var (
	// ErrSessionNotFound means an operation referenced an unknown
	// thread id. A client error; retrying without an initial message
	// will not help.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition means a stage was asked to run without its
	// preconditions, e.g. a review with no active draft.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)
