// Package registry maps workspace ids to their document store and sync
// provider.
//
// Entries are created on first access and kept for the registry's lifetime.
// At most one provider is left connected by Get: returning a different
// workspace's store disconnects the provider of the previously returned one.
// A disconnected workspace reconnects when it is requested again.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/fsops"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithStoreOptions sets options passed to every new store.
func WithStoreOptions(opts ...docstore.Option) Option {
	return func(r *Registry) {
		r.storeOpts = opts
	}
}

// WithSchemas replaces the block schemas registered on new stores.
func WithSchemas(schemas ...docstore.BlockSchema) Option {
	return func(r *Registry) {
		r.schemas = schemas
	}
}

type entry struct {
	id       string
	store    *docstore.Store
	provider syncprovider.Provider

	// ready is closed once bootstrap-or-validate has run; err holds its
	// outcome and is only read after ready is closed.
	ready   chan struct{}
	err     error
	created bool
}

// EntryInfo describes a registry entry.
type EntryInfo struct {
	ID    string
	State syncprovider.ConnState
	Ready bool
	Err   error
}

// Registry owns one store and one provider per workspace.
type Registry struct {
	factory   syncprovider.Factory
	logger    zerolog.Logger
	storeOpts []docstore.Option
	schemas   []docstore.BlockSchema

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	last    string
	closed  bool
}

// New creates a registry whose providers are built by factory.
func New(factory syncprovider.Factory, opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		factory: factory,
		logger:  zerolog.Nop(),
		schemas: docstore.DefaultSchemas(),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the store for id, creating its entry on first access.
//
// Algorithm steps:
//  1. Disconnect the provider of the previously returned workspace, if it
//     differs from id.
//  2. On first access: create the store and register schemas, create and
//     connect the provider, and start bootstrap-or-validate in the
//     background once the provider's first cycle has synced.
//  3. Otherwise reconnect the provider if it is disconnected.
func (r *Registry) Get(id string) (*docstore.Store, error) {
	if err := fsops.ValidateIdentifier(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	if r.last != "" && r.last != id {
		if prev, ok := r.entries[r.last]; ok {
			prev.provider.Disconnect()
			r.logger.Debug().Str("workspace", prev.id).Msg("disconnected previous workspace")
		}
	}

	e, ok := r.entries[id]
	if !ok {
		var err error
		e, err = r.create(id)
		if err != nil {
			return nil, err
		}
	} else if e.provider.State() == syncprovider.StateDisconnected {
		e.provider.Connect()
		r.logger.Debug().Str("workspace", id).Msg("reconnected workspace")
	}

	r.last = id
	return e.store, nil
}

// create builds and registers a new entry. The caller holds r.mu.
func (r *Registry) create(id string) (*entry, error) {
	store := docstore.New(id, r.storeOpts...)
	if err := store.Register(r.schemas...); err != nil {
		return nil, fmt.Errorf("failed to create store for %s: %w", id, err)
	}
	provider, err := r.factory(id, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider for %s: %w", id, err)
	}

	e := &entry{
		id:       id,
		store:    store,
		provider: provider,
		ready:    make(chan struct{}),
	}
	r.entries[id] = e
	r.order = append(r.order, id)

	provider.Connect()
	synced := provider.WhenSynced()

	r.wg.Add(1)
	go r.bootstrap(e, synced)

	r.logger.Debug().Str("workspace", id).Msg("created workspace entry")
	return e, nil
}

func (r *Registry) bootstrap(e *entry, synced <-chan struct{}) {
	defer r.wg.Done()
	defer close(e.ready)

	select {
	case <-synced:
	case <-r.ctx.Done():
		e.err = ErrClosed
		return
	}

	e.created, e.err = Bootstrap(e.store)
	switch {
	case e.err != nil:
		r.logger.Error().Err(e.err).Str("workspace", e.id).Msg("workspace bootstrap failed")
	case e.created:
		r.logger.Info().Str("workspace", e.id).Msg("bootstrapped empty workspace")
	}
}

// ProviderFor returns the provider for id without side effects.
func (r *Registry) ProviderFor(id string) (syncprovider.Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// Lookup returns the store for id without side effects.
func (r *Registry) Lookup(id string) (*docstore.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// WhenReady blocks until bootstrap-or-validate has run for id and returns
// its outcome, or until ctx is done.
func (r *Registry) WhenReady(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	select {
	case <-e.ready:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries describes all entries in creation order.
func (r *Registry) Entries() []EntryInfo {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.mu.Unlock()

	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		info := EntryInfo{ID: e.id, State: e.provider.State()}
		select {
		case <-e.ready:
			info.Ready = e.err == nil
			info.Err = e.err
		default:
		}
		out = append(out, info)
	}
	return out
}

// Close disconnects every provider and stops pending bootstraps.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.entries))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.mu.Unlock()

	r.cancel()
	for _, e := range entries {
		e.provider.Disconnect()
	}
	r.wg.Wait()
	return nil
}
