package engine

import (
	"fmt"
	"slices"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

// Workspaces returns the listed workspace ids.
func (e *Engine) Workspaces() []string {
	return slices.Clone(e.workspaces.Get())
}

// AddWorkspace appends id to the workspace list.
func (e *Engine) AddWorkspace(id string) error {
	if err := fsops.ValidateIdentifier(id); err != nil {
		return err
	}
	var exists bool
	e.workspaces.Update(func(cur []string) []string {
		if slices.Contains(cur, id) {
			exists = true
			return cur
		}
		return append(slices.Clone(cur), id)
	})
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	return nil
}

// RemoveWorkspace drops id from the workspace list. The selection is left
// alone, and so is the workspace's stored content.
func (e *Engine) RemoveWorkspace(id string) error {
	var found bool
	e.workspaces.Update(func(cur []string) []string {
		i := slices.Index(cur, id)
		if i < 0 {
			return cur
		}
		found = true
		return slices.Delete(slices.Clone(cur), i, i+1)
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Select makes id the selected workspace. An empty id clears the selection,
// after which it defaults to the first listed workspace again.
func (e *Engine) Select(id string) error {
	if id != "" && !slices.Contains(e.workspaces.Get(), id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.selection.Set(id)
	return nil
}

// Selected returns the selected workspace id, or "" for none.
func (e *Engine) Selected() string {
	return e.selection.Get()
}
