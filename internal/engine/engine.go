// Package engine is the session layer between the CLI and the workspace
// registry.
//
// An Engine holds the reactive session state:
//   - workspaces: the persisted list of workspace ids
//   - selection: the selected workspace id, empty for none
//   - resolution: the handle resolved for the selection
//   - surface: where the resolved handle is displayed
//
// Effects tie them together. The list is saved whenever it changes, the
// selection defaults to the first listed workspace, every selection change
// starts a resolution, and the resolved handle is attached to the surface
// and detached again before anything else is attached.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/reactive"
	"github.com/danieljhkim/blockpad/internal/registry"
	"github.com/danieljhkim/blockpad/internal/state"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

// Registry is the part of the workspace registry the engine uses.
type Registry interface {
	Get(id string) (*docstore.Store, error)
	ProviderFor(id string) (syncprovider.Provider, bool)
	WhenReady(ctx context.Context, id string) error
	Entries() []registry.EntryInfo
}

// Engine is a workspace session. It is safe for concurrent use.
type Engine struct {
	reg    Registry
	ids    state.IDList
	logger zerolog.Logger

	workspaces *reactive.Cell[[]string]
	selection  *reactive.Cell[string]
	resolution *reactive.Cell[*Resolution]
	surface    *reactive.Cell[Surface]

	// gen counts resolutions started. It only changes inside resolution
	// cell updates.
	gen atomic.Uint64

	effects []*reactive.Effect

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New loads the workspace list and starts the session effects.
// A list that cannot be loaded or parsed is returned as an error.
func New(reg Registry, ids state.IDList, logger zerolog.Logger) (*Engine, error) {
	loaded, err := ids.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace list: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		reg:        reg,
		ids:        ids,
		logger:     logger,
		workspaces: reactive.NewCellFunc(loaded, slices.Equal[[]string]),
		selection:  reactive.NewCell(""),
		resolution: reactive.NewCell[*Resolution](nil),
		surface:    reactive.NewCellFunc[Surface](nil, nil),
		ctx:        ctx,
		cancel:     cancel,
	}

	e.effects = append(e.effects,
		reactive.NewEffect(e.persistList, e.workspaces),
		reactive.NewEffect(e.defaultSelection, e.workspaces, e.selection),
		reactive.NewEffect(e.resolveSelection, e.selection),
		reactive.NewEffect(e.mount, e.selection, e.resolution, e.surface),
	)
	return e, nil
}

// persistList saves the workspace list. Failures leave the previously saved
// list in place and are only logged.
func (e *Engine) persistList() func() {
	ids := e.workspaces.Get()
	if err := e.ids.Save(ids); err != nil {
		e.logger.Warn().Err(err).Strs("workspaces", ids).Msg("failed to persist workspace list")
	}
	return nil
}

// defaultSelection selects the first listed workspace while nothing is
// selected.
func (e *Engine) defaultSelection() func() {
	ids := e.workspaces.Get()
	if e.selection.Get() == "" && len(ids) > 0 {
		e.selection.Set(ids[0])
	}
	return nil
}

// Close stops the session: the current view is detached and pending
// resolutions are abandoned. The registry is not closed.
func (e *Engine) Close() error {
	for i := len(e.effects) - 1; i >= 0; i-- {
		e.effects[i].Dispose()
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	return nil
}

// Status describes the session and its registry entries.
func (e *Engine) Status() *StatusResult {
	entries := make(map[string]registry.EntryInfo)
	for _, info := range e.reg.Entries() {
		entries[info.ID] = info
	}

	selected := e.selection.Get()
	result := &StatusResult{
		Selected:   selected,
		Workspaces: []WorkspaceInfo{},
	}
	for _, id := range e.workspaces.Get() {
		info := WorkspaceInfo{ID: id, Selected: id == selected}
		if entry, ok := entries[id]; ok {
			info.Loaded = true
			info.State = entry.State.String()
			if entry.Err != nil {
				info.Error = entry.Err.Error()
			}
		}
		result.Workspaces = append(result.Workspaces, info)
	}
	for _, entry := range entries {
		if isActive(entry.State) {
			result.Connected++
		}
	}
	return result
}
