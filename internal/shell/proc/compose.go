package proc

import (
	"context"
	"fmt"
	"path/filepath"
)

// =============================================================================
// Compose Collaborator
// =============================================================================

// Compose shells out to docker compose for per-service recreation.
type Compose struct {
	runner Runner
}

// NewCompose creates a compose collaborator on the given runner.
func NewCompose(runner Runner) *Compose {
	return &Compose{runner: runner}
}

// Recreate destroys and recreates one service from the compose file. The
// command runs with the compose file's directory as working directory so
// relative paths inside the document resolve the way compose expects.
// Readiness semantics are compose's own; no extra waiting happens here.
func (c *Compose) Recreate(ctx context.Context, composeFile, service string) error {
	dir := filepath.Dir(composeFile)
	_, err := c.runner.Run(ctx, dir, "docker",
		"compose", "-f", composeFile, "up", "-d", "--force-recreate", service)
	if err != nil {
		return fmt.Errorf("recreate service %s: %w", service, err)
	}
	return nil
}
