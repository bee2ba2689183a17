package versions

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrClone means the clone collaborator exited non-zero.
	ErrClone = errors.New("clone failed")

	// ErrBadTag means the tag is not filesystem-path-safe.
	ErrBadTag = errors.New("tag is not filesystem-safe")

	// ErrPublish means the pointer replacement could not complete.
	ErrPublish = errors.New("pointer publish failed")
)

// StoreError wraps version-store failures with operation context.
type StoreError struct {
	Op      string // Operation that failed
	Tag     string // Version tag if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Tag, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, tag, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Tag:     tag,
		Message: message,
		Err:     err,
	}
}
