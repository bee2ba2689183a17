package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usageText = `Usage: rollout [flags] <command> [arguments]

Commands:
  deploy <tag>         roll the target project onto the given config version
  rollback <tag>       redeploy an older config version
  history              show recent deployment runs
  git fetch <tag>      fetch all remotes inside an existing version checkout
  git checkout <tag>   re-checkout the tag inside its version directory

Flags:
`

const configHelp = `Configuration is read from the file given with -env-file (.env or yaml),
then overridden by ROLLOUT_* environment variables, then by flags.

Required:
  repo.url          ROLLOUT_REPO_URL          -repo-url      config git repository
Common:
  versions.base_path ROLLOUT_VERSIONS_BASE_PATH -base-path   version checkout directory
  compose.file      ROLLOUT_COMPOSE_FILE      -compose-file  compose document to patch
  compose.mount_target ROLLOUT_COMPOSE_MOUNT_TARGET -mount-target  config mount path in containers
  deploy.project    ROLLOUT_DEPLOY_PROJECT    -name          compose project to roll
  deploy.mode       ROLLOUT_DEPLOY_MODE       -mode          single or swarm
  deploy.swarm_service ROLLOUT_DEPLOY_SWARM_SERVICE -service swarm service to update
  engine.socket     ROLLOUT_ENGINE_SOCKET     -socket        engine unix socket
  history.dsn       ROLLOUT_HISTORY_DSN       -history-db    run journal database
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rollout", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		fs.PrintDefaults()
	}

	envFile := fs.String("env-file", "", "Path to config file (.env or yaml)")
	repoURL := fs.String("repo-url", "", "Config repository URL (overrides config)")
	name := fs.String("name", "", "Compose project to roll (overrides config)")
	mode := fs.String("mode", "", "Rollout mode: single or swarm (overrides config)")
	service := fs.String("service", "", "Swarm service to update (overrides config)")
	socket := fs.String("socket", "", "Engine unix socket path (overrides config)")
	basePath := fs.String("base-path", "", "Version checkout directory (overrides config)")
	mountTarget := fs.String("mount-target", "", "Config mount path inside containers (overrides config)")
	composeFile := fs.String("compose-file", "", "Compose file to patch (overrides config)")
	historyDB := fs.String("history-db", "", "Run journal database path (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFormat := fs.String("log-format", "", "Log format: json or text (overrides config)")
	limit := fs.Int("limit", 20, "Number of history entries to show")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	if *showVersion {
		fmt.Printf("rollout %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return ExitConfigError
	}

	// Load configuration
	cfg, err := LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		fmt.Fprint(os.Stderr, configHelp)
		return ExitConfigError
	}

	// Command-line flags win over file and environment.
	applyOverride(&cfg.Repo.URL, *repoURL)
	applyOverride(&cfg.Deploy.Project, *name)
	applyOverride(&cfg.Deploy.Mode, *mode)
	applyOverride(&cfg.Deploy.SwarmService, *service)
	applyOverride(&cfg.Engine.Socket, *socket)
	applyOverride(&cfg.Versions.BasePath, *basePath)
	applyOverride(&cfg.Compose.MountTarget, *mountTarget)
	applyOverride(&cfg.Compose.File, *composeFile)
	applyOverride(&cfg.History.DSN, *historyDB)
	applyOverride(&cfg.Log.Level, *logLevel)
	applyOverride(&cfg.Log.Format, *logFormat)

	// Setup logger
	logger := SetupLogger(cfg)

	ctx := context.Background()

	switch command := fs.Arg(0); command {
	case "deploy", "rollback":
		if fs.NArg() != 2 {
			fmt.Fprintf(os.Stderr, "usage: rollout %s <tag>\n", command)
			return ExitConfigError
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			fmt.Fprint(os.Stderr, configHelp)
			return ExitConfigError
		}

		app, err := NewApp(cfg, logger)
		if err != nil {
			logger.Error("failed to initialize", "error", err)
			return ExitConfigError
		}
		defer app.Close()

		tag := fs.Arg(1)
		if command == "deploy" {
			err = app.Deploy(ctx, tag)
		} else {
			err = app.Rollback(ctx, tag)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return ExitRunFailed
		}
		return ExitSuccess

	case "history":
		app, err := NewApp(cfg, logger)
		if err != nil {
			logger.Error("failed to initialize", "error", err)
			return ExitConfigError
		}
		defer app.Close()

		if err := app.History(ctx, *limit); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return ExitRunFailed
		}
		return ExitSuccess

	case "git":
		if fs.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "usage: rollout git fetch|checkout <tag>")
			return ExitConfigError
		}

		app, err := NewApp(cfg, logger)
		if err != nil {
			logger.Error("failed to initialize", "error", err)
			return ExitConfigError
		}
		defer app.Close()

		tag := fs.Arg(2)
		switch sub := fs.Arg(1); sub {
		case "fetch":
			err = app.GitFetch(ctx, tag)
		case "checkout":
			err = app.GitCheckout(ctx, tag)
		default:
			fmt.Fprintf(os.Stderr, "unknown git command %q\n", sub)
			return ExitConfigError
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return ExitRunFailed
		}
		return ExitSuccess

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		fs.Usage()
		return ExitConfigError
	}
}

// applyOverride copies a flag value into the config when the flag was set.
func applyOverride(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
