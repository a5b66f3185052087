package engine

import (
	"errors"

	"github.com/danieljhkim/blockpad/internal/registry"
)

var (
	// ErrNotFound indicates an unknown workspace id.
	ErrNotFound = errors.New("workspace not found")

	// ErrExists indicates a workspace id that is already listed.
	ErrExists = errors.New("workspace already exists")

	// ErrInvariant indicates a broken invariant. It is the same value the
	// registry reports for corrupt workspaces.
	ErrInvariant = registry.ErrInvariant
)
