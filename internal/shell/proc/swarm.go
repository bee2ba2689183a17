package proc

import (
	"context"
	"fmt"
)

// =============================================================================
// Swarm Collaborator
// =============================================================================

// Swarm shells out to docker service update for cluster-service mode.
type Swarm struct {
	runner Runner
}

// NewSwarm creates a swarm collaborator on the given runner.
func NewSwarm(runner Runner) *Swarm {
	return &Swarm{runner: runner}
}

// UpdateMount replaces a service's config mount in a single update: the old
// mount at removeTarget is dropped and addSpec (type=...,source=...,target=...)
// is added. Swarm performs its own rolling update of the service's tasks.
func (s *Swarm) UpdateMount(ctx context.Context, service, removeTarget, addSpec string) error {
	_, err := s.runner.Run(ctx, "", "docker",
		"service", "update",
		"--mount-rm", removeTarget,
		"--mount-add", addSpec,
		service)
	if err != nil {
		return fmt.Errorf("update service %s: %w", service, err)
	}
	return nil
}
