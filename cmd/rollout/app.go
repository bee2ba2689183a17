package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/artpar/rollout/internal/shell/deploy"
	"github.com/artpar/rollout/internal/shell/engine"
	"github.com/artpar/rollout/internal/shell/history"
	"github.com/artpar/rollout/internal/shell/proc"
	"github.com/artpar/rollout/internal/shell/versions"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitRunFailed   = 1
	ExitConfigError = 2
)

// =============================================================================
// App
// =============================================================================

// App wires the deployment collaborators for one CLI invocation.
type App struct {
	config  *Config
	orch    *deploy.Orchestrator
	git     *proc.Git
	journal *history.Journal
	logger  *slog.Logger
}

// NewApp builds the application from config.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	runner := proc.NewExecRunner(logger)
	git := proc.NewGit(runner)

	var journal *history.Journal
	if cfg.History.Enabled {
		j, err := history.Open(cfg.History.DSN)
		if err != nil {
			// A broken journal degrades to an unrecorded run, it never
			// blocks a deployment.
			logger.Warn("history journal unavailable", "dsn", cfg.History.DSN, "error", err)
		} else {
			journal = j
		}
	}

	orch := deploy.NewOrchestrator(
		deploy.Config{
			RepoURL:      cfg.Repo.URL,
			MountTarget:  cfg.Compose.MountTarget,
			ComposeFile:  cfg.Compose.File,
			KeepVersions: cfg.Versions.Keep,
		},
		engine.NewClient(cfg.Engine.Socket, logger),
		versions.NewStore(cfg.Versions.BasePath, git, logger),
		proc.NewCompose(runner),
		proc.NewSwarm(runner),
		journalOrNil(journal),
		logger,
	)

	return &App{config: cfg, orch: orch, git: git, journal: journal, logger: logger}, nil
}

// journalOrNil avoids storing a typed nil behind the Journal interface.
func journalOrNil(j *history.Journal) deploy.Journal {
	if j == nil {
		return nil
	}
	return j
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// =============================================================================
// Commands
// =============================================================================

// Deploy rolls the configured project onto tag.
func (a *App) Deploy(ctx context.Context, tag string) error {
	return a.orch.Deploy(ctx, a.request(tag))
}

// Rollback redeploys an older tag through the same rolling sequence.
func (a *App) Rollback(ctx context.Context, tag string) error {
	return a.orch.Rollback(ctx, a.request(tag))
}

func (a *App) request(tag string) deploy.Request {
	return deploy.Request{
		Tag:          tag,
		Project:      a.config.Deploy.Project,
		Mode:         deploy.Mode(a.config.Deploy.Mode),
		SwarmService: a.config.Deploy.SwarmService,
	}
}

// GitFetch fetches all remotes inside an existing version checkout.
func (a *App) GitFetch(ctx context.Context, tag string) error {
	dir := versions.VersionPath(a.config.Versions.BasePath, tag)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no checkout for tag %q at %s", tag, dir)
	}
	return a.git.FetchAll(ctx, dir)
}

// GitCheckout re-checks out the tag inside its version directory, repairing
// a checkout whose working tree drifted.
func (a *App) GitCheckout(ctx context.Context, tag string) error {
	dir := versions.VersionPath(a.config.Versions.BasePath, tag)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no checkout for tag %q at %s", tag, dir)
	}
	return a.git.CheckoutTag(ctx, dir, tag)
}

// History prints the most recent runs.
func (a *App) History(ctx context.Context, limit int) error {
	if a.journal == nil {
		return fmt.Errorf("history journal is disabled or unavailable")
	}

	runs, err := a.journal.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tKIND\tTAG\tPROJECT\tMODE\tSTAGE\tRESULT\tTARGETS")
	for _, run := range runs {
		result := "ok"
		if !run.Succeeded {
			result = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Kind,
			run.Tag,
			run.Project,
			run.Mode,
			run.Stage,
			result,
			run.RolledTargets,
			run.TotalTargets,
		)
	}
	return w.Flush()
}
