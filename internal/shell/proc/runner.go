// Package proc invokes the external binaries the deployment leans on: git
// for fetching versioned config, docker compose for recreating services and
// docker service update for swarm mode. Each collaborator is a thin wrapper
// over a Runner so the orchestrator can be tested without real binaries.
package proc

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// =============================================================================
// Runner
// =============================================================================

// Runner executes one external command and returns its combined output.
// Success is exit code zero; on failure the output is still returned so
// callers can surface the binary's diagnostics.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner that logs each invocation at debug level.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run executes name with args, in dir when non-empty.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	r.logger.Debug("running command", "command", name, "args", strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, &CommandError{
			Name:   name,
			Args:   args,
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return out, nil
}

// =============================================================================
// Error Type
// =============================================================================

// CommandError carries the failed command line and its captured output.
type CommandError struct {
	Name   string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s %s: %v: %s", e.Name, strings.Join(e.Args, " "), e.Err, e.Output)
	}
	return fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
