package compaction

import (
	"errors"
	"fmt"
)

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction configuration.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrLoopDetected indicates too many consecutive compaction attempts.
	ErrLoopDetected = errors.New("compaction loop detected")

	// ErrCannotCompact indicates no valid reduction of the history exists.
	ErrCannotCompact = errors.New("cannot compact history")

	// ErrInvalidHistory indicates the history contains a malformed compaction part.
	ErrInvalidHistory = errors.New("invalid history")
)

// CompactionError is the terminal failure of a Reduce call. It is returned
// when the loop guard trips or when a retry would leave nothing to summarize.
// Callers must surface it instead of submitting the history to the model.
type CompactionError struct {
	// Op is the step that failed (e.g., "CheckLoop", "Truncate")
	Op string

	// Reason is the human readable explanation
	Reason string

	// RetryCount is the number of compaction attempts that led here
	RetryCount int

	// Err is the sentinel classifying the failure
	Err error
}

// Error returns the reason, which is what end users see.
func (e *CompactionError) Error() string {
	return e.Reason
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *CompactionError) Unwrap() error {
	return e.Err
}

// newLoopError builds the loop guard failure for n consecutive attempts.
func newLoopError(n int) *CompactionError {
	return &CompactionError{
		Op:         "CheckLoop",
		Reason:     fmt.Sprintf("Compaction loop detected after %d attempts", n),
		RetryCount: n,
		Err:        ErrLoopDetected,
	}
}

// newCannotCompactError builds the failure for a retry with no earlier turn left.
func newCannotCompactError(retryCount int) *CompactionError {
	return &CompactionError{
		Op:         "Truncate",
		Reason:     "Cannot compact: would leave only the compaction request",
		RetryCount: retryCount,
		Err:        ErrCannotCompact,
	}
}

// IsCompactionError reports whether err is a CompactionError and returns it.
func IsCompactionError(err error) (*CompactionError, bool) {
	var ce *CompactionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
