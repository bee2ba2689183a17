package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrConnectionFailed means the runtime socket could not be reached.
	ErrConnectionFailed = errors.New("engine connection failed")

	// ErrDecode means a response body could not be parsed.
	ErrDecode = errors.New("engine response decode failed")

	// ErrBadResponse means the response framing itself was malformed
	// (no status line, truncated chunk, missing header separator).
	ErrBadResponse = errors.New("engine response malformed")
)

// APIError is returned when the runtime answers with a non-success status.
// It carries the status code and the raw response body for diagnostics.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: engine returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// EngineError wraps transport and decode failures with operation context.
type EngineError struct {
	Op      string // Operation that failed
	ID      string // Container ID if applicable
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, id, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
