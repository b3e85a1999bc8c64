package ctxcompact

import (
	"errors"
	"fmt"

	"github.com/youssefsiam38/ctxcompact/compaction"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the guard configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidToolSchema is returned when a tool schema is invalid
	ErrInvalidToolSchema = errors.New("invalid tool schema")

	// ErrHookRejected is returned when a before-reduce hook aborts a reduction
	ErrHookRejected = errors.New("rejected by hook")
)

// CompactionError is the terminal failure of a reduction. See
// compaction.CompactionError.
type CompactionError = compaction.CompactionError

// IsCompactionError reports whether err is a CompactionError and returns it.
func IsCompactionError(err error) (*CompactionError, bool) {
	return compaction.IsCompactionError(err)
}

// GuardError represents an error with additional context
type GuardError struct {
	Op      string         // Operation that failed
	Err     error          // Underlying error
	Context map[string]any // Additional context
}

// Error implements the error interface
func (e *GuardError) Error() string {
	if reason, ok := e.Context["reason"]; ok {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Err, reason)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *GuardError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *GuardError) WithContext(key string, value any) *GuardError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewGuardError creates a new GuardError
func NewGuardError(op string, err error) *GuardError {
	return &GuardError{
		Op:  op,
		Err: err,
	}
}
