package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/registry"
)

// Resolve returns a handle for workspace id once it has synced and been
// bootstrapped or validated. An empty id resolves to nil.
//
// Resolve opens id through the registry, which keeps one provider connected
// at a time. Resolving an id other than the selected one therefore
// disconnects the selected workspace's provider while its view stays
// mounted; it reconnects the next time it is opened. Callers that only
// follow the selection should use WaitHandle.
func (e *Engine) Resolve(ctx context.Context, id string) (*Handle, error) {
	if id == "" {
		return nil, nil
	}
	store, err := e.reg.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace %s: %w", id, err)
	}
	return e.await(ctx, id, store)
}

// await is the part of Resolve that blocks.
//
// Algorithm steps:
//  1. Look up the provider; its absence is an invariant violation.
//  2. Wait for the provider's current cycle to sync.
//  3. Wait for the registry's bootstrap-or-validate step.
//  4. Bind a new view to the workspace page, which must exist.
func (e *Engine) await(ctx context.Context, id string, store *docstore.Store) (*Handle, error) {
	provider, ok := e.reg.ProviderFor(id)
	if !ok {
		return nil, &registry.InvariantError{Workspace: id, Reason: "no sync provider"}
	}

	select {
	case <-provider.WhenSynced():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := e.reg.WhenReady(ctx, id); err != nil {
		return nil, err
	}

	page, ok := store.GetPage(registry.PageID)
	if !ok {
		return nil, &registry.InvariantError{
			Workspace: id,
			Reason:    fmt.Sprintf("page %q missing after sync", registry.PageID),
		}
	}

	view := NewEditorView()
	view.SetPage(page)
	return &Handle{WorkspaceID: id, View: view}, nil
}

// resolveSelection starts resolving the current selection. Opening the
// workspace happens here so registry calls follow selection order; the
// waiting happens on a goroutine whose result is dropped if the selection
// has changed since.
func (e *Engine) resolveSelection() func() {
	id := e.selection.Get()

	var gen uint64
	e.resolution.Update(func(*Resolution) *Resolution {
		gen = e.gen.Add(1)
		return nil
	})
	if id == "" {
		return nil
	}

	store, err := e.reg.Get(id)
	if err != nil {
		e.publish(gen, &Resolution{WorkspaceID: id, Err: fmt.Errorf("failed to open workspace %s: %w", id, err)})
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		h, err := e.await(e.ctx, id, store)
		e.publish(gen, &Resolution{WorkspaceID: id, Handle: h, Err: err})
	}()
	return nil
}

// publish stores res unless a newer resolution has started. The generation
// is checked inside the cell update so it cannot change in between.
func (e *Engine) publish(gen uint64, res *Resolution) {
	stale := false
	e.resolution.Update(func(cur *Resolution) *Resolution {
		if e.gen.Load() != gen {
			stale = true
			return cur
		}
		return res
	})

	switch {
	case stale:
		e.logger.Debug().Str("workspace", res.WorkspaceID).Msg("dropping stale resolution")
	case res.Err != nil && e.ctx.Err() == nil:
		e.logger.Error().Err(res.Err).Str("workspace", res.WorkspaceID).Msg("failed to resolve workspace")
	}
}

// Resolution returns the latest resolution for the selection, or nil while
// it is pending.
func (e *Engine) Resolution() *Resolution {
	return e.resolution.Get()
}

// WaitHandle waits until the selection's resolution for id is published and
// returns its handle or error.
func (e *Engine) WaitHandle(ctx context.Context, id string) (*Handle, error) {
	ch := make(chan *Resolution, 1)
	cancel := e.resolution.Subscribe(func(r *Resolution) {
		if r != nil && r.WorkspaceID == id {
			select {
			case ch <- r:
			default:
			}
		}
	})
	defer cancel()

	if r := e.resolution.Get(); r != nil && r.WorkspaceID == id {
		return r.Handle, r.Err
	}
	select {
	case r := <-ch:
		return r.Handle, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
