package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// WorkspacesKey is the key the workspace identifier list is stored under.
const WorkspacesKey = "workspaces"

// ErrMalformed indicates a persisted value could not be parsed.
var ErrMalformed = errors.New("malformed persisted value")

// IDList is the durable list of known workspace identifiers.
type IDList interface {
	// Load returns the persisted identifiers. On first run, when nothing has
	// been persisted yet, it returns a single built-in default identifier.
	Load() ([]string, error)

	// Save replaces the persisted identifiers.
	Save(ids []string) error
}

// KVIDList implements IDList as a JSON array stored in a KV.
type KVIDList struct {
	kv        KV
	defaultID string
}

// NewIDList creates an IDList stored under WorkspacesKey in kv.
func NewIDList(kv KV, defaultID string) *KVIDList {
	return &KVIDList{
		kv:        kv,
		defaultID: defaultID,
	}
}

// Load reads the identifier list. A stored value that is not a JSON array of
// strings is reported as ErrMalformed; there is no silent fallback.
func (l *KVIDList) Load() ([]string, error) {
	data, ok, err := l.kv.Get(WorkspacesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace list: %w", err)
	}
	if !ok {
		return []string{l.defaultID}, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, WorkspacesKey, err)
	}
	if ids == nil {
		// "null" round-trips as an empty list rather than the first-run default.
		ids = []string{}
	}
	return ids, nil
}

// Save writes the identifier list. Identifiers that are not valid UTF-8
// cannot be stored as JSON strings unchanged and are rejected.
func (l *KVIDList) Save(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	for _, id := range ids {
		if !utf8.ValidString(id) {
			return fmt.Errorf("failed to save workspace list: identifier %q is not valid UTF-8", id)
		}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace list: %w", err)
	}
	if err := l.kv.Set(WorkspacesKey, data); err != nil {
		return fmt.Errorf("failed to save workspace list: %w", err)
	}
	return nil
}
