package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Repo     RepoConfig     `mapstructure:"repo"`
	Versions VersionsConfig `mapstructure:"versions"`
	Compose  ComposeConfig  `mapstructure:"compose"`
	Deploy   DeployConfig   `mapstructure:"deploy"`
	Engine   EngineConfig   `mapstructure:"engine"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      LogConfig      `mapstructure:"log"`
}

// RepoConfig holds the configuration repository settings.
type RepoConfig struct {
	// URL is the git repository that holds the versioned configuration.
	// Each deployed tag is cloned from here.
	URL string `mapstructure:"url"`
}

// VersionsConfig holds the version store settings.
type VersionsConfig struct {
	// BasePath is the directory that holds the config-{tag} checkouts
	// and the current pointer.
	BasePath string `mapstructure:"base_path"`
	// Keep is how many old versions the post-rollout cleanup retains.
	Keep int `mapstructure:"keep"`
}

// ComposeConfig holds the compose document settings.
type ComposeConfig struct {
	// File is the compose document patched before each rollout.
	File string `mapstructure:"file"`
	// MountTarget is the container path of the config mount whose source
	// the patch rewrites.
	MountTarget string `mapstructure:"mount_target"`
}

// DeployConfig holds rollout target selection.
type DeployConfig struct {
	// Project is the compose project whose containers are rolled.
	Project string `mapstructure:"project"`
	// Mode is "single" for per-service recreation on one host or "swarm"
	// for a cluster-managed service update.
	Mode string `mapstructure:"mode"`
	// SwarmService names the cluster service updated in swarm mode.
	SwarmService string `mapstructure:"swarm_service"`
}

// EngineConfig holds container engine settings.
type EngineConfig struct {
	// Socket is the path of the engine's unix socket.
	Socket string `mapstructure:"socket"`
}

// HistoryConfig holds the run journal settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("repo.url", "")
	v.SetDefault("versions.base_path", "/opt/rollout/configs")
	v.SetDefault("versions.keep", 3)
	v.SetDefault("compose.file", "docker-compose.yml")
	v.SetDefault("compose.mount_target", "/etc/traefik")
	v.SetDefault("deploy.project", "")
	v.SetDefault("deploy.mode", "single")
	v.SetDefault("deploy.swarm_service", "")
	v.SetDefault("engine.socket", "/var/run/docker.sock")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "/opt/rollout/history.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if strings.HasSuffix(configPath, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("ROLLOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	if c.Repo.URL == "" {
		return fmt.Errorf("repo.url is required (set ROLLOUT_REPO_URL or -repo)")
	}
	if c.Versions.BasePath == "" {
		return fmt.Errorf("versions.base_path is required")
	}
	if c.Compose.File == "" {
		return fmt.Errorf("compose.file is required")
	}
	if c.Compose.MountTarget == "" {
		return fmt.Errorf("compose.mount_target is required")
	}
	switch c.Deploy.Mode {
	case "single", "swarm":
	default:
		return fmt.Errorf("deploy.mode must be \"single\" or \"swarm\", got %q", c.Deploy.Mode)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
