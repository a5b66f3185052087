package syncprovider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

// ErrInvalidDSN indicates a backing DSN that cannot be used.
var ErrInvalidDSN = errors.New("invalid backing dsn")

// BackingFactory builds a Backing from a DSN.
type BackingFactory func(dsn string, logger zerolog.Logger) (Backing, error)

var backingRegistry = struct {
	mu        sync.RWMutex
	factories map[string]BackingFactory
}{
	factories: map[string]BackingFactory{},
}

// RegisterBackingFactory makes a backing available under scheme. Registered
// factories take precedence over the built-in schemes.
func RegisterBackingFactory(scheme string, factory BackingFactory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	backingRegistry.mu.Lock()
	defer backingRegistry.mu.Unlock()
	backingRegistry.factories[scheme] = factory
}

func lookupBackingFactory(scheme string) (BackingFactory, bool) {
	scheme = normalizeScheme(scheme)
	backingRegistry.mu.RLock()
	defer backingRegistry.mu.RUnlock()
	factory, ok := backingRegistry.factories[scheme]
	return factory, ok
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}

// BuildBackingFromDSN builds a Backing from dsn:
//
//	file:///path/to/docs or /path/to/docs  snapshot files in a directory
//	memory://                               in-process memory
func BuildBackingFromDSN(dsn string, logger zerolog.Logger) (Backing, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDSN)
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupBackingFactory(scheme); ok {
		return factory(dsn, logger)
	}
	switch scheme {
	case "", "file":
		path, err := dsnPath(parsed, dsn)
		if err != nil {
			return nil, err
		}
		return NewFileBacking(fsops.NewRealFS(), path, logger), nil
	case "memory", "mem":
		return NewMemoryBacking(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDSN, scheme)
	}
}

func dsnPath(parsed *url.URL, raw string) (string, error) {
	if strings.TrimSpace(parsed.Scheme) == "" {
		return strings.TrimSpace(raw), nil
	}
	path := strings.TrimSpace(parsed.Path)
	if path == "" {
		path = strings.TrimSpace(parsed.Opaque)
	}
	if path == "" {
		path = strings.TrimSpace(parsed.Host)
	}
	if path == "" {
		return "", fmt.Errorf("%w: %s has no path", ErrInvalidDSN, raw)
	}
	return path, nil
}
