package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when executing an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolDiscarded is a sentinel error for discarded tool calls.
	ErrToolDiscarded = errors.New("tool discarded")
)

// ToolDiscardError signals that the tool input is invalid and retrying the
// same call cannot succeed. The error text is reported back to the model.
type ToolDiscardError struct {
	err error
}

// Error returns the error message.
func (e *ToolDiscardError) Error() string {
	if e.err == nil {
		return "tool discarded"
	}
	return fmt.Sprintf("tool discarded: %s", e.err.Error())
}

// Is reports whether the target matches this error type.
func (e *ToolDiscardError) Is(target error) bool {
	if target == ErrToolDiscarded {
		return true
	}
	_, ok := target.(*ToolDiscardError)
	return ok
}

// Unwrap returns the underlying error.
func (e *ToolDiscardError) Unwrap() error {
	return e.err
}

// ToolDiscard wraps an error to indicate the tool call should be discarded.
func ToolDiscard(err error) error {
	return &ToolDiscardError{err: err}
}

// IsToolDiscard reports whether err is a ToolDiscardError.
func IsToolDiscard(err error) bool {
	return errors.Is(err, ErrToolDiscarded)
}
