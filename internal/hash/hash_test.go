package hash

import "testing"

func TestBlake3Hasher_Sum(t *testing.T) {
	hasher := NewBlake3Hasher()

	t.Run("known vector", func(t *testing.T) {
		// BLAKE3-256 of the empty input.
		want := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
		if got := hasher.Sum(nil); got != want {
			t.Errorf("Sum(nil) = %s, want %s", got, want)
		}
	})

	t.Run("stable for same content", func(t *testing.T) {
		a := hasher.Sum([]byte("page0"))
		b := hasher.Sum([]byte("page0"))
		if a != b {
			t.Errorf("Sum not stable: %s != %s", a, b)
		}
		if len(a) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(a))
		}
	})

	t.Run("differs for different content", func(t *testing.T) {
		if hasher.Sum([]byte("page0")) == hasher.Sum([]byte("page1")) {
			t.Error("different content produced the same checksum")
		}
	})
}

func TestFakeHasher_Sum(t *testing.T) {
	hasher := NewFakeHasher()
	if got := hasher.Sum([]byte("anything")); got != "fakehash" {
		t.Errorf("Sum() = %q, want fakehash", got)
	}

	hasher.Value = "custom"
	if got := hasher.Sum(nil); got != "custom" {
		t.Errorf("Sum() = %q, want custom", got)
	}
}
