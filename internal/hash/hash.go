// Package hash provides content checksums for document snapshots.
//
// Backing files carry a BLAKE3 digest of their payload so that a truncated or
// hand-edited file is detected on load instead of being merged into a live
// document. The package provides a real implementation and a fake for tests.
package hash

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hasher computes checksums of byte payloads.
type Hasher interface {
	// Sum returns the hex-encoded checksum of data.
	Sum(data []byte) string
}

// Blake3Hasher implements Hasher using BLAKE3-256.
type Blake3Hasher struct{}

// NewBlake3Hasher creates a new Blake3Hasher.
func NewBlake3Hasher() *Blake3Hasher {
	return &Blake3Hasher{}
}

// Sum returns the hex-encoded BLAKE3-256 digest of data.
func (h *Blake3Hasher) Sum(data []byte) string {
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// FakeHasher implements Hasher with a fixed checksum for testing.
type FakeHasher struct {
	Value string
}

// NewFakeHasher creates a FakeHasher that always returns "fakehash".
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{Value: "fakehash"}
}

// Sum returns the configured value regardless of input.
func (h *FakeHasher) Sum(data []byte) string {
	return h.Value
}
