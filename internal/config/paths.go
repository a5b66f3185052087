// Package config manages blockpad configuration and filesystem paths.
//
// The default root is ~/.blockpad/ containing state/ (the key-value files such
// as the workspace list), docs/ (one backing file per workspace), the
// config.yaml file and the log file. The root can be moved with BLOCKPAD_ROOT.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RootEnv overrides the data root directory.
const RootEnv = "BLOCKPAD_ROOT"

// Paths contains all the filesystem paths used by blockpad.
type Paths struct {
	// Root is the base directory for all blockpad data (default: ~/.blockpad)
	Root string

	// State is the directory holding persisted key-value entries
	State string

	// Docs is the directory holding per-workspace backing files
	Docs string

	// Config is the path to the config file
	Config string

	// Log is the default log file path
	Log string
}

// DefaultPaths returns the default paths for blockpad.
// Paths can be overridden with environment variables:
// - BLOCKPAD_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(RootEnv)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".blockpad")
	}
	return PathsAt(root), nil
}

// PathsAt returns the layout rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:   root,
		State:  filepath.Join(root, "state"),
		Docs:   filepath.Join(root, "docs"),
		Config: filepath.Join(root, "config.yaml"),
		Log:    filepath.Join(root, "blockpad.log"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.State,
		p.Docs,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
