package queue

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("queue item not found")
	ErrInvalidState = errors.New("transition not allowed in current status")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
