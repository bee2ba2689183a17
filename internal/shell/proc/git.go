package proc

import (
	"context"
	"fmt"
)

// =============================================================================
// Git Collaborator
// =============================================================================

// Git shells out to the git binary for tag-pinned clones and repository
// maintenance.
type Git struct {
	runner Runner
}

// NewGit creates a git collaborator on the given runner.
func NewGit(runner Runner) *Git {
	return &Git{runner: runner}
}

// CloneAtTag clones exactly one tag of the repository into dest. A shallow
// single-branch clone keeps versioned config checkouts small.
func (g *Git) CloneAtTag(ctx context.Context, url, tag, dest string) error {
	if _, err := g.runner.Run(ctx, "", "git", "clone", "--depth", "1", "--branch", tag, url, dest); err != nil {
		return fmt.Errorf("clone %s at %s: %w", url, tag, err)
	}
	return nil
}

// FetchAll fetches all remotes in an existing checkout. Maintenance
// operation, not on the deploy path.
func (g *Git) FetchAll(ctx context.Context, repoDir string) error {
	if _, err := g.runner.Run(ctx, repoDir, "git", "fetch", "--all"); err != nil {
		return fmt.Errorf("fetch in %s: %w", repoDir, err)
	}
	return nil
}

// CheckoutTag checks out a tag in an existing checkout. Maintenance
// operation, not on the deploy path.
func (g *Git) CheckoutTag(ctx context.Context, repoDir, tag string) error {
	if _, err := g.runner.Run(ctx, repoDir, "git", "checkout", tag); err != nil {
		return fmt.Errorf("checkout %s in %s: %w", tag, repoDir, err)
	}
	return nil
}
