package deploy

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNoTargets means no running container matched the project filter.
	// Guaranteed to fire before any side effect of the run.
	ErrNoTargets = errors.New("no running containers match the target project")

	// ErrServiceNameRequired is returned in swarm mode without a service.
	ErrServiceNameRequired = errors.New("service name required in cluster mode")

	// ErrProjectRequired is returned in single-host mode without a project.
	ErrProjectRequired = errors.New("project name required in single-host mode")

	// ErrTagRequired is returned when the request carries no tag.
	ErrTagRequired = errors.New("version tag required")
)

// RunError reports a failed run: the stage the state machine was in, how
// far the per-target rollout got, and the underlying cause. Targets rolled
// before the failure stay on the new version; there is no compensation.
type RunError struct {
	Stage  Stage
	Rolled int // targets recreated before the failure
	Total  int // targets the run planned to roll
	Err    error
}

func (e *RunError) Error() string {
	if e.Total > 0 {
		return fmt.Sprintf("deployment failed in stage %s (%d/%d targets rolled): %v", e.Stage, e.Rolled, e.Total, e.Err)
	}
	return fmt.Sprintf("deployment failed in stage %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func failed(stage Stage, err error) *RunError {
	return &RunError{Stage: stage, Err: err}
}
