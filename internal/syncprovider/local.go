package syncprovider

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/hash"
)

// Option configures providers created by NewFactory.
type Option func(*options)

type options struct {
	hasher hash.Hasher
	logger zerolog.Logger
}

// WithHasher sets the snapshot checksum function.
func WithHasher(h hash.Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// WithLogger sets the provider logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewFactory returns a Factory creating LocalProviders over backing.
func NewFactory(backing Backing, opts ...Option) Factory {
	o := options{
		hasher: hash.NewBlake3Hasher(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return func(id string, store *docstore.Store) (Provider, error) {
		return NewLocalProvider(id, store, backing, o.hasher, o.logger), nil
	}
}

// cycle is the state of one connect cycle.
type cycle struct {
	synced chan struct{}
	done   chan struct{}

	// Guarded by LocalProvider.mu.
	loaded   bool
	readOnly bool
	stops    []func()
}

func (c *cycle) finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// LocalProvider synchronizes a store with a Backing.
type LocalProvider struct {
	id      string
	store   *docstore.Store
	backing Backing
	hasher  hash.Hasher
	logger  zerolog.Logger

	mu      sync.Mutex
	state   ConnState
	synced  chan struct{}
	started bool
	cycle   *cycle

	writeMu sync.Mutex
	lastSum string
}

// NewLocalProvider creates a disconnected provider.
func NewLocalProvider(id string, store *docstore.Store, backing Backing, h hash.Hasher, logger zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		id:      id,
		store:   store,
		backing: backing,
		hasher:  h,
		logger:  logger.With().Str("workspace", id).Logger(),
		synced:  make(chan struct{}),
	}
}

func (p *LocalProvider) ID() string {
	return p.id
}

func (p *LocalProvider) State() ConnState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *LocalProvider) WhenSynced() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synced
}

// Connect starts a connect cycle and returns without waiting for it.
//
// Algorithm steps:
//  1. Subscribe to store updates; they are only written once loaded.
//  2. On a goroutine, load and merge the backing snapshot.
//  3. Write the merged state back and start watching the backing store.
//  4. Close the cycle's synced channel.
func (p *LocalProvider) Connect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateDisconnected {
		return
	}
	if p.started {
		p.synced = make(chan struct{})
	}
	p.started = true

	c := &cycle{
		synced: p.synced,
		done:   make(chan struct{}),
	}
	c.stops = append(c.stops, p.store.Subscribe(func(u docstore.Update) {
		p.onUpdate(c, u)
	}))
	p.cycle = c
	p.state = StateConnecting
	p.logger.Debug().Msg("connecting")

	go p.run(c)
}

// Disconnect ends the current cycle. A load in progress still completes
// and closes its synced channel, but nothing further is written or watched.
func (p *LocalProvider) Disconnect() {
	p.mu.Lock()
	if p.state == StateDisconnected {
		p.mu.Unlock()
		return
	}
	c := p.cycle
	close(c.done)
	stops := c.stops
	c.stops = nil
	p.state = StateDisconnected
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	p.logger.Debug().Msg("disconnected")
}

func (p *LocalProvider) run(c *cycle) {
	defer close(c.synced)

	readOnly := false
	snap, _, err := p.load()
	if err != nil {
		// Writing now would replace data that could not be read.
		p.logger.Error().Err(err).Msg("initial sync failed, backing store left untouched")
		readOnly = true
	} else if snap != nil {
		p.store.Apply(*snap, Origin)
	}

	p.mu.Lock()
	c.loaded = true
	c.readOnly = readOnly
	p.mu.Unlock()

	if !readOnly && !c.finished() {
		p.persist()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c.finished() {
		return
	}
	if !readOnly {
		stop, err := p.backing.Watch(p.id, func() { p.reload(c) })
		if err != nil {
			p.logger.Warn().Err(err).Msg("external changes will not be picked up")
		} else {
			c.stops = append(c.stops, stop)
		}
	}
	p.state = StateConnected
	p.logger.Debug().Bool("read_only", readOnly).Msg("connected")
}

func (p *LocalProvider) onUpdate(c *cycle, u docstore.Update) {
	if u.Origin == Origin {
		return
	}
	p.mu.Lock()
	ok := c.loaded && !c.readOnly && !c.finished()
	p.mu.Unlock()
	if ok {
		p.persist()
	}
}

// reload merges an externally changed snapshot into the store.
func (p *LocalProvider) reload(c *cycle) {
	if c.finished() {
		return
	}
	snap, sum, err := p.load()
	if err != nil {
		p.logger.Warn().Err(err).Msg("ignoring unreadable external change")
		return
	}
	if snap == nil {
		return
	}

	p.writeMu.Lock()
	own := sum == p.lastSum
	p.writeMu.Unlock()
	if own {
		return
	}

	if p.store.Apply(*snap, Origin) {
		p.logger.Debug().Str("origin", Origin).Msg("merged external change")
		if !c.finished() {
			p.persist()
		}
	}
}

func (p *LocalProvider) load() (*docstore.Snapshot, string, error) {
	data, err := p.backing.Load(p.id)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", nil
	}
	snap, sum, err := DecodeSnapshot(data, p.hasher)
	if err != nil {
		return nil, "", err
	}
	return &snap, sum, nil
}

// persist writes the full store snapshot unless it is unchanged since the
// last write. Failures are logged; the next change retries implicitly.
func (p *LocalProvider) persist() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	data, sum, err := EncodeSnapshot(p.store.Snapshot(), p.hasher)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	if sum == p.lastSum {
		return
	}
	if err := p.backing.Save(p.id, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to persist snapshot")
		return
	}
	p.lastSum = sum
}
