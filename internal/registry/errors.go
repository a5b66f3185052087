package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant indicates a broken invariant: corrupt data or a
	// programming error. Operations failing with it are not retried.
	ErrInvariant = errors.New("invariant violated")

	// ErrNotFound indicates the workspace has no registry entry.
	ErrNotFound = errors.New("workspace not found")

	// ErrClosed indicates the registry has been closed.
	ErrClosed = errors.New("registry closed")
)

// InvariantError reports which workspace broke which invariant.
type InvariantError struct {
	Workspace string
	Reason    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: workspace %s: %s", ErrInvariant, e.Workspace, e.Reason)
}

// Is makes errors.Is(err, ErrInvariant) match.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
