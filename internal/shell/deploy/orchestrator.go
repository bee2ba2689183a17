package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artpar/rollout/internal/core/compose"
	"github.com/artpar/rollout/internal/core/naming"
	"github.com/artpar/rollout/internal/shell/engine"
	"github.com/artpar/rollout/internal/shell/history"
)

// LabelComposeProject is the label compose stamps on containers with the
// project they belong to.
const LabelComposeProject = "com.docker.compose.project"

// defaultKeepVersions is the retention window for old config directories
// when the config leaves it unset.
const defaultKeepVersions = 3

// =============================================================================
// Orchestrator
// =============================================================================

// Config holds the fixed inputs of every run.
type Config struct {
	// RepoURL is the configuration repository cloned per tag.
	RepoURL string
	// MountTarget is the mount path inside the target containers whose
	// source the patch rewrites, e.g. /etc/traefik.
	MountTarget string
	// ComposeFile is the compose document edited in place.
	ComposeFile string
	// KeepVersions is how many old version directories the post-rollout
	// cleanup retains. Zero means the default of 3.
	KeepVersions int
}

// Orchestrator executes one deployment or rollback run. A run is strictly
// sequential: engine calls, process invocations and filesystem work are
// awaited one after another, never concurrently. Two runs against the same
// base path race on version creation and pointer replacement; callers must
// exclude that externally.
type Orchestrator struct {
	cfg      Config
	engine   EngineClient
	store    VersionStore
	recreate Recreator
	updater  ServiceUpdater
	journal  Journal // may be nil
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators. journal may be
// nil when no history is kept.
func NewOrchestrator(cfg Config, engineClient EngineClient, store VersionStore, recreate Recreator, updater ServiceUpdater, journal Journal, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		engine:   engineClient,
		store:    store,
		recreate: recreate,
		updater:  updater,
		journal:  journal,
		logger:   logger,
	}
}

// =============================================================================
// Deploy / Rollback
// =============================================================================

// Deploy runs the rolling deployment for req.Tag.
func (o *Orchestrator) Deploy(ctx context.Context, req Request) error {
	return o.run(ctx, "deploy", req)
}

// Rollback redeploys an older tag. Not a distinct mechanism: an existing
// version directory for the tag is reused as-is (its content is trusted,
// not verified against the tag), a missing one is cloned, and the identical
// rolling sequence runs against it.
func (o *Orchestrator) Rollback(ctx context.Context, req Request) error {
	return o.run(ctx, "rollback", req)
}

// run drives the state machine Start → VersionReady → ComposePatched →
// RolloutInProgress → CleanedUp → Done and records the outcome.
func (o *Orchestrator) run(ctx context.Context, kind string, req Request) error {
	started := time.Now()
	o.logger.Info("starting run",
		"kind", kind,
		"tag", req.Tag,
		"project", req.Project,
		"mode", req.Mode,
	)

	rolled, total, runErr := o.execute(ctx, req)

	stage := StageDone
	errMsg := ""
	if runErr != nil {
		stage = runErr.Stage
		errMsg = runErr.Error()
		o.logger.Error("run failed",
			"kind", kind,
			"tag", req.Tag,
			"stage", string(stage),
			"targets_rolled", rolled,
			"targets_total", total,
			"error", runErr.Err,
		)
	} else {
		o.logger.Info("run completed",
			"kind", kind,
			"tag", req.Tag,
			"targets_rolled", rolled,
		)
	}

	o.record(ctx, history.Run{
		Kind:          kind,
		Tag:           req.Tag,
		Project:       req.Project,
		Mode:          string(req.Mode),
		Stage:         string(stage),
		Succeeded:     runErr == nil,
		RolledTargets: rolled,
		TotalTargets:  total,
		Error:         errMsg,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	})

	if runErr != nil {
		return runErr
	}
	return nil
}

// execute performs the stage transitions and returns rollout progress.
func (o *Orchestrator) execute(ctx context.Context, req Request) (rolled, total int, runErr *RunError) {
	// Stage Start: validate the request and, in single-host mode, resolve
	// the rollout targets up front. The pre-flight keeps a NoTargets
	// failure fully side-effect-free: no clone performed, no pointer
	// moved, no process spawned.
	if err := validate(req); err != nil {
		return 0, 0, failed(StageStart, err)
	}

	var services []string
	if req.Mode == ModeSingle {
		var err error
		services, err = o.resolveTargets(ctx, req.Project)
		if err != nil {
			return 0, 0, failed(StageStart, err)
		}
		total = len(services)
	}

	// Start → VersionReady: make the tag's checkout exist.
	versionPath, err := o.store.EnsureVersion(ctx, o.cfg.RepoURL, req.Tag)
	if err != nil {
		return 0, total, failed(StageStart, err)
	}

	// VersionReady → ComposePatched: move the pointer, rewrite the mount.
	if _, err := o.store.Publish(versionPath); err != nil {
		return 0, total, failed(StageVersionReady, err)
	}
	changed, err := compose.PatchFile(o.cfg.ComposeFile, compose.Match{Target: o.cfg.MountTarget}, versionPath)
	if err != nil {
		return 0, total, failed(StageVersionReady, err)
	}
	o.logger.Info("compose document patched", "file", o.cfg.ComposeFile, "changed", changed, "source", versionPath)

	// ComposePatched → RolloutInProgress: roll the targets.
	switch req.Mode {
	case ModeSwarm:
		addSpec := fmt.Sprintf("type=bind,source=%s,target=%s", versionPath, o.cfg.MountTarget)
		if err := o.updater.UpdateMount(ctx, req.SwarmService, o.cfg.MountTarget, addSpec); err != nil {
			return 0, total, failed(StageComposePatched, err)
		}
		rolled = 1
	case ModeSingle:
		for i, service := range services {
			o.logger.Info("rolling service", "service", service, "position", i+1, "total", total)
			if err := o.recreate.Recreate(ctx, o.cfg.ComposeFile, service); err != nil {
				// Services rolled so far stay on the new version.
				return i, total, &RunError{Stage: StageRolloutInProgress, Rolled: i, Total: total, Err: err}
			}
			rolled = i + 1
		}
	}

	// RolloutInProgress → CleanedUp → Done. Retention never fails a run.
	keep := o.cfg.KeepVersions
	if keep <= 0 {
		keep = defaultKeepVersions
	}
	o.store.Cleanup(keep)

	return rolled, total, nil
}

// resolveTargets lists running containers, narrows them to the project and
// derives the de-duplicated logical service names to recreate. Filter
// order: compose project label, then name substring, then image substring.
func (o *Orchestrator) resolveTargets(ctx context.Context, project string) ([]string, error) {
	records, err := o.engine.ListContainers(ctx, false)
	if err != nil {
		return nil, err
	}

	matched := engine.FilterByLabel(records, LabelComposeProject, project)
	if len(matched) == 0 {
		matched = engine.FilterByStateAndName(records, engine.ContainerStateRunning, project)
	}
	if len(matched) == 0 {
		matched = engine.FilterByStateAndImage(records, engine.ContainerStateRunning, project)
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: project %q", ErrNoTargets, project)
	}

	names := make([]string, 0, len(matched))
	for _, r := range matched {
		names = append(names, naming.ServiceName(r.Labels, r.PrimaryName()))
	}
	services := naming.Dedupe(names)

	o.logger.Info("resolved rollout targets",
		"project", project,
		"containers", len(matched),
		"services", len(services),
	)
	return services, nil
}

// record journals the finished run; journal failures are logged only.
func (o *Orchestrator) record(ctx context.Context, run history.Run) {
	if o.journal == nil {
		return
	}
	if err := o.journal.RecordRun(ctx, run); err != nil {
		o.logger.Warn("failed to record run in history", "error", err)
	}
}

func validate(req Request) error {
	if req.Tag == "" {
		return ErrTagRequired
	}
	switch req.Mode {
	case ModeSwarm:
		if req.SwarmService == "" {
			return ErrServiceNameRequired
		}
	case ModeSingle:
		if req.Project == "" {
			return ErrProjectRequired
		}
	default:
		return fmt.Errorf("unknown mode %q", req.Mode)
	}
	return nil
}
