package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// MemFS is an in-memory FS used by tests and ephemeral sessions.
// Paths are cleaned before use; directories are tracked implicitly.
type MemFS struct {
	mu         sync.Mutex
	files      map[string][]byte
	dirs       map[string]bool
	failWrites bool
}

// ErrInjected is returned by MemFS when a failure has been injected.
var ErrInjected = errors.New("injected failure")

// NewMemFS creates an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (fs *MemFS) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		fs.dirs[p] = true
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	return nil
}

func (fs *MemFS) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		return nil
	}
	if fs.dirs[path] {
		delete(fs.dirs, path)
		return nil
	}
	return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
}

func (fs *MemFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failWrites {
		return ErrInjected
	}
	path = filepath.Clean(path)
	fs.files[path] = append([]byte(nil), data...)
	fs.dirs[filepath.Dir(path)] = true
	return nil
}

func (fs *MemFS) ReadFile(path string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[filepath.Clean(path)]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (fs *MemFS) Exists(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	_, isFile := fs.files[path]
	return isFile || fs.dirs[path], nil
}

func (fs *MemFS) ValidateIdentifier(id string) error {
	return ValidateIdentifier(id)
}

// SetFailWrites makes every later AtomicWrite fail with ErrInjected.
func (fs *MemFS) SetFailWrites(fail bool) {
	fs.mu.Lock()
	fs.failWrites = fail
	fs.mu.Unlock()
}
