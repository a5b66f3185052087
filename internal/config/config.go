package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "BLOCKPAD_LOG_LEVEL"

// DefaultWorkspaceID is the workspace offered on first run.
const DefaultWorkspaceID = "demo-workspace"

// Config is the user configuration read from config.yaml.
type Config struct {
	// DefaultWorkspace seeds the workspace list when none has been saved yet.
	DefaultWorkspace string `yaml:"default_workspace"`

	// Backend is a DSN selecting the local backing store for documents:
	// empty or "file://<dir>" for files, "memory://" for a process-local store.
	Backend string `yaml:"backend"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFile, when set, receives JSON logs instead of stderr.
	LogFile string `yaml:"log_file"`

	// Watch enables picking up backing file changes made by other processes
	// while a workspace is connected.
	Watch *bool `yaml:"watch,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	watch := true
	return &Config{
		DefaultWorkspace: DefaultWorkspaceID,
		LogLevel:         "warn",
		Watch:            &watch,
	}
}

// WatchEnabled reports whether backing file watching is on (default true).
func (c *Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// Level parses LogLevel, honouring BLOCKPAD_LOG_LEVEL.
func (c *Config) Level() (zerolog.Level, error) {
	raw := strings.TrimSpace(os.Getenv(LogLevelEnv))
	if raw == "" {
		raw = strings.TrimSpace(c.LogLevel)
	}
	if raw == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if err := fsops.ValidateIdentifier(c.DefaultWorkspace); err != nil {
		return fmt.Errorf("default_workspace: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Load reads the config file at path. A missing file yields Default();
// a malformed file is an error.
func Load(fs fsops.FS, path string) (*Config, error) {
	cfg := Default()

	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.DefaultWorkspace) == "" {
		cfg.DefaultWorkspace = DefaultWorkspaceID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
