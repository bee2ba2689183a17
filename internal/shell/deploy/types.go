// Package deploy sequences one rolling redeployment of a versioned config
// artifact: clone the tag, publish the current pointer, patch the compose
// document and roll each target onto the new version.
package deploy

import (
	"context"

	"github.com/artpar/rollout/internal/shell/engine"
	"github.com/artpar/rollout/internal/shell/history"
)

// =============================================================================
// Request Types
// =============================================================================

// Mode selects how targets are rolled.
type Mode string

const (
	// ModeSingle recreates individual compose services on one host.
	ModeSingle Mode = "single"
	// ModeSwarm updates a cluster-managed service's mount and lets the
	// cluster roll its own tasks.
	ModeSwarm Mode = "swarm"
)

// Request describes one deployment (or rollback) run.
type Request struct {
	// Tag is the version label to deploy. Must be filesystem-path-safe.
	Tag string
	// Project is the compose project whose containers are rolled.
	Project string
	// Mode selects single-host or swarm rollout.
	Mode Mode
	// SwarmService names the cluster service to update. Required in
	// ModeSwarm, ignored otherwise.
	SwarmService string
}

// Stage names a state of the deployment state machine. A failing run
// reports the stage it was in when the failure happened.
type Stage string

const (
	StageStart             Stage = "Start"
	StageVersionReady      Stage = "VersionReady"
	StageComposePatched    Stage = "ComposePatched"
	StageRolloutInProgress Stage = "RolloutInProgress"
	StageCleanedUp         Stage = "CleanedUp"
	StageDone              Stage = "Done"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// EngineClient lists containers from the local runtime. Implemented by
// engine.Client; faked in tests.
type EngineClient interface {
	ListContainers(ctx context.Context, all bool) ([]engine.ContainerRecord, error)
}

// VersionStore manages versioned config directories and the current
// pointer. Implemented by versions.Store.
type VersionStore interface {
	EnsureVersion(ctx context.Context, repoURL, tag string) (string, error)
	Publish(versionPath string) (string, error)
	Cleanup(keep int)
}

// Recreator destroys and recreates one compose service. Implemented by
// proc.Compose.
type Recreator interface {
	Recreate(ctx context.Context, composeFile, service string) error
}

// ServiceUpdater swaps a cluster service's config mount. Implemented by
// proc.Swarm.
type ServiceUpdater interface {
	UpdateMount(ctx context.Context, service, removeTarget, addSpec string) error
}

// Journal records finished runs. Best-effort: failures are logged, never
// propagated. Implemented by history.Journal.
type Journal interface {
	RecordRun(ctx context.Context, run history.Run) error
}
