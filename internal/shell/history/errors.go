// Package history persists a journal of deployment runs.
package history

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrConnectionFailed is returned when the database cannot be opened.
	ErrConnectionFailed = errors.New("history database connection failed")

	// ErrMigrationFailed is returned when schema migration fails.
	ErrMigrationFailed = errors.New("history database migration failed")
)

// JournalError wraps errors with additional context.
type JournalError struct {
	Op      string // Operation that failed (e.g., "RecordRun")
	RunID   string // Run ID if applicable
	Message string
	Err     error
}

func (e *JournalError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.RunID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *JournalError) Unwrap() error {
	return e.Err
}

// NewJournalError creates a new JournalError.
func NewJournalError(op, runID, message string, err error) *JournalError {
	return &JournalError{
		Op:      op,
		RunID:   runID,
		Message: message,
		Err:     err,
	}
}
