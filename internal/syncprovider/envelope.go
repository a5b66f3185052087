package syncprovider

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/blockpad/internal/codec"
	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/hash"
)

// FormatVersion is the version written into snapshot envelopes.
const FormatVersion = 1

var (
	// ErrChecksum indicates a snapshot payload does not match its checksum.
	ErrChecksum = errors.New("snapshot checksum mismatch")

	// ErrUnsupportedVersion indicates a snapshot written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

type envelope struct {
	Version  int              `cbor:"1,keyasint"`
	Checksum string           `cbor:"2,keyasint"`
	Payload  codec.RawMessage `cbor:"3,keyasint"`
}

// EncodeSnapshot encodes snap into a checksummed envelope and returns the
// bytes and the payload checksum.
func EncodeSnapshot(snap docstore.Snapshot, h hash.Hasher) ([]byte, string, error) {
	payload, err := codec.Marshal(snap)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	sum := h.Sum(payload)

	data, err := codec.Marshal(envelope{
		Version:  FormatVersion,
		Checksum: sum,
		Payload:  payload,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}
	return data, sum, nil
}

// DecodeSnapshot verifies and decodes an envelope written by EncodeSnapshot.
func DecodeSnapshot(data []byte, h hash.Hasher) (docstore.Snapshot, string, error) {
	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return docstore.Snapshot{}, "", fmt.Errorf("failed to decode snapshot envelope: %w", err)
	}
	if env.Version < 1 || env.Version > FormatVersion {
		return docstore.Snapshot{}, "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if sum := h.Sum(env.Payload); sum != env.Checksum {
		return docstore.Snapshot{}, "", fmt.Errorf("%w: have %s, want %s", ErrChecksum, sum, env.Checksum)
	}

	var snap docstore.Snapshot
	if err := codec.Unmarshal(env.Payload, &snap); err != nil {
		return docstore.Snapshot{}, "", fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, env.Checksum, nil
}
