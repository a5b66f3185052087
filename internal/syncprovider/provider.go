// Package syncprovider binds a document store to a local backing store.
//
// A provider moves through connect cycles. Each cycle performs one initial
// pass (load the backing bytes, merge them into the store, write the merged
// state back) and then signals that it is synced. While connected, local
// edits are written to the backing store and external changes to it are
// merged into the store. Disconnecting stops both; the in-memory store is
// left as it is.
package syncprovider

import (
	"github.com/danieljhkim/blockpad/internal/docstore"
)

// Origin is the update origin used when backing content is merged into a
// store. Updates with this origin are not written back.
const Origin = "backing"

// ConnState is the connection state of a provider.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Provider synchronizes one store with its backing store.
type Provider interface {
	// ID returns the workspace id.
	ID() string

	// Connect starts a new connect cycle. It is a no-op unless the provider
	// is disconnected.
	Connect()

	// Disconnect stops synchronization. It is a no-op when disconnected.
	Disconnect()

	// WhenSynced returns the current cycle's signal. The channel is closed
	// once the cycle's initial pass has finished, even if the provider was
	// disconnected meanwhile. Before the first Connect it returns the
	// channel the first cycle will close.
	WhenSynced() <-chan struct{}

	// State returns the current connection state.
	State() ConnState
}

// Factory creates the provider for a workspace store.
type Factory func(id string, store *docstore.Store) (Provider, error)
