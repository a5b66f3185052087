package syncprovider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

// Backing is the persistent store a provider synchronizes with.
type Backing interface {
	// Load returns the stored bytes for id, or nil if nothing is stored.
	Load(id string) ([]byte, error)

	// Save replaces the stored bytes for id.
	Save(id string, data []byte) error

	// Watch calls onChange, on some other goroutine, whenever the stored
	// bytes for id may have been changed. The returned function stops it.
	Watch(id string, onChange func()) (stop func(), err error)
}

// SnapshotExt is the file extension of snapshot files.
const SnapshotExt = ".cbor"

// FileBacking stores one snapshot file per workspace in a directory.
type FileBacking struct {
	fs     fsops.FS
	dir    string
	logger zerolog.Logger
}

// NewFileBacking creates a FileBacking rooted at dir.
func NewFileBacking(fs fsops.FS, dir string, logger zerolog.Logger) *FileBacking {
	return &FileBacking{
		fs:     fs,
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the snapshot directory.
func (b *FileBacking) Dir() string {
	return b.dir
}

// Path returns the snapshot file for id.
func (b *FileBacking) Path(id string) (string, error) {
	if err := b.fs.ValidateIdentifier(id); err != nil {
		return "", err
	}
	return filepath.Join(b.dir, id+SnapshotExt), nil
}

func (b *FileBacking) Load(id string) ([]byte, error) {
	path, err := b.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := b.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

func (b *FileBacking) Save(id string, data []byte) error {
	path, err := b.Path(id)
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := b.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Watch watches the snapshot directory rather than the file, since atomic
// writes replace the file and would drop a file watch.
func (b *FileBacking) Watch(id string, onChange func()) (func(), error) {
	path, err := b.Path(id)
	if err != nil {
		return nil, err
	}
	if err := b.fs.MkdirAll(b.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", b.dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn().Err(err).Str("workspace", id).Msg("snapshot watcher error")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			watcher.Close()
		})
	}, nil
}

type unwatched struct {
	Backing
}

func (unwatched) Watch(string, func()) (func(), error) {
	return func() {}, nil
}

// WithoutWatch wraps b so that changes made by others are only seen on the
// next connect.
func WithoutWatch(b Backing) Backing {
	return unwatched{Backing: b}
}

// MemoryBacking keeps snapshots in memory. Providers sharing one
// MemoryBacking see each other's writes, which makes it suitable for tests
// and ephemeral sessions.
type MemoryBacking struct {
	mu       sync.Mutex
	data     map[string][]byte
	loads    map[string]int
	watchers map[string]map[uint64]func()
	nextID   uint64
	gate     chan struct{}
	saveErr  error
}

// NewMemoryBacking creates an empty MemoryBacking.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{
		data:     make(map[string][]byte),
		loads:    make(map[string]int),
		watchers: make(map[string]map[uint64]func()),
	}
}

func (b *MemoryBacking) Load(id string) ([]byte, error) {
	b.mu.Lock()
	gate := b.gate
	b.loads[id]++
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[id]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBacking) Save(id string, data []byte) error {
	b.mu.Lock()
	if b.saveErr != nil {
		err := b.saveErr
		b.mu.Unlock()
		return err
	}
	b.data[id] = append([]byte(nil), data...)
	watchers := make([]func(), 0, len(b.watchers[id]))
	for _, fn := range b.watchers[id] {
		watchers = append(watchers, fn)
	}
	b.mu.Unlock()

	for _, fn := range watchers {
		go fn()
	}
	return nil
}

func (b *MemoryBacking) Watch(id string, onChange func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	wid := b.nextID
	if b.watchers[id] == nil {
		b.watchers[id] = make(map[uint64]func())
	}
	b.watchers[id][wid] = onChange

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.watchers[id], wid)
	}, nil
}

// Hold makes subsequent loads block until the returned release is called.
func (b *MemoryBacking) Hold() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gate == gate {
				b.gate = nil
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// FailSaves makes Save return err. A nil err restores normal behavior.
func (b *MemoryBacking) FailSaves(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErr = err
}

// Loads returns how many times id has been loaded.
func (b *MemoryBacking) Loads(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads[id]
}

// Bytes returns the stored bytes for id.
func (b *MemoryBacking) Bytes(id string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[id]
	return data, ok
}
