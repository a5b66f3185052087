package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

// KV provides an interface for persisting raw values by key.
type KV interface {
	// Get returns the value stored under key.
	// The boolean is false when nothing has ever been stored.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	// A failed Set leaves the previous value in place.
	Set(key string, value []byte) error
}

// FileKV implements KV using one JSON file per key.
type FileKV struct {
	fs  fsops.FS
	dir string
}

// NewFileKV creates a new FileKV rooted at dir.
func NewFileKV(fs fsops.FS, dir string) *FileKV {
	return &FileKV{
		fs:  fs,
		dir: dir,
	}
}

func (s *FileKV) path(key string) (string, error) {
	if err := s.fs.ValidateIdentifier(key); err != nil {
		return "", fmt.Errorf("invalid key: %w", err)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the value for key.
func (s *FileKV) Get(key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the value for key atomically.
func (s *FileKV) Set(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(path, value, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// MemoryKV implements KV in memory.
type MemoryKV struct {
	mu      sync.Mutex
	values  map[string][]byte
	failSet error
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (s *MemoryKV) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// FailSets makes later Set calls return err; nil restores normal behaviour.
func (s *MemoryKV) FailSets(err error) {
	s.mu.Lock()
	s.failSet = err
	s.mu.Unlock()
}
