package shared

import "errors"

// Error categories. Domain errors wrap one of these so transport layers can
// map failures without knowing every package's sentinels.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the input was rejected before any persistence.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the resource is in a state that forbids the action.
	ErrConflict = errors.New("state conflict")
	// ErrPrecondition indicates organization setup is incomplete.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUnauthorized indicates the caller identity is missing.
	ErrUnauthorized = errors.New("unauthorized")
)
