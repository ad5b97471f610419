package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("appointment request not found")
	ErrInvalidState = errors.New("operation not allowed in current status")
)

// ConflictError is returned when approve or reschedule would double-book a
// doctor. It carries every overlapping committed appointment so the caller
// can present alternatives instead of treating it as a hard failure.
type ConflictError struct {
	Conflicts []ConflictInfo
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot overlaps %d existing appointment(s)", len(e.Conflicts))
}

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// KindOf maps an operation error to its transport label.
func KindOf(err error) ErrorKind {
	var conflictErr *ConflictError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &conflictErr):
		return KindConflict
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
