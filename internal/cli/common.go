package cli

import (
	"encoding/json"
	"fmt"

	"github.com/danieljhkim/blockpad/internal/config"
	"github.com/danieljhkim/blockpad/internal/engine"
	"github.com/danieljhkim/blockpad/internal/fsops"
	"github.com/danieljhkim/blockpad/internal/hash"
	"github.com/danieljhkim/blockpad/internal/logging"
	"github.com/danieljhkim/blockpad/internal/registry"
	"github.com/danieljhkim/blockpad/internal/state"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

// session is an engine plus the resources it was built from.
type session struct {
	eng    *engine.Engine
	reg    *registry.Registry
	logger *logging.Logger
	cfg    *config.Config
}

// Close shuts down the engine, then the registry, then the log file.
func (s *session) Close() {
	if s.eng != nil {
		_ = s.eng.Close()
	}
	if s.reg != nil {
		_ = s.reg.Close()
	}
	_ = s.logger.Close()
}

// newEngine creates an engine with real implementations of all dependencies.
//
// Algorithm steps:
//  1. Resolve paths and load config.yaml (or --config).
//  2. Build the logger from the configured level and log file.
//  3. Pick the id list store and document backing: memory when --ephemeral,
//     otherwise the state directory and the configured backend DSN.
//  4. Build the registry over the backing and the engine over both.
func newEngine() (*session, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	fs := fsops.NewRealFS()
	cfgPath := paths.Config
	if configPath != "" {
		cfgPath = configPath
	}
	cfg, err := config.Load(fs, cfgPath)
	if err != nil {
		return nil, err
	}

	if !ephemeral {
		if err := paths.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("failed to ensure directories: %w", err)
		}
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	builder := logging.New().Level(level)
	if cfg.LogFile != "" {
		builder = builder.FromPath(cfg.LogFile)
	} else {
		builder = builder.FromWriter(errOut).Console(true)
	}
	logger, err := builder.Make()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	s := &session{logger: logger, cfg: cfg}

	var kv state.KV
	var backing syncprovider.Backing
	if ephemeral {
		kv = state.NewMemoryKV()
		backing = syncprovider.NewMemoryBacking()
	} else {
		kv = state.NewFileKV(fs, paths.State)
		dsn := cfg.Backend
		if dsn == "" {
			dsn = paths.Docs
		}
		backing, err = syncprovider.BuildBackingFromDSN(dsn, logger.Logger)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	if !cfg.WatchEnabled() {
		backing = syncprovider.WithoutWatch(backing)
	}

	factory := syncprovider.NewFactory(backing,
		syncprovider.WithHasher(hash.NewBlake3Hasher()),
		syncprovider.WithLogger(logger.Logger),
	)
	s.reg = registry.New(factory, registry.WithLogger(logger.Logger))

	s.eng, err = engine.New(s.reg, state.NewIDList(kv, cfg.DefaultWorkspace), logger.Logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to the command output.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
