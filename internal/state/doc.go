// Package state persists small pieces of session state between runs.
//
// The state package provides a key-value abstraction (KV) in the spirit of a
// browser's local storage, and the workspace identifier list built on top of
// it. Values are persisted as JSON files in the ~/.blockpad/state directory.
//
// Key concepts:
//   - KV: Interface for reading and writing raw values by key
//   - FileKV: One <key>.json file per key, written atomically
//   - IDList: The durable list of known workspace identifiers
//   - WorkspacesKey: The key the identifier list is stored under
package state
