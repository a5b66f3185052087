package syncprovider

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/blockpad/internal/fsops"
)

func TestFileBacking_LoadSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	b := NewFileBacking(fsops.NewRealFS(), dir, zerolog.Nop())

	data, err := b.Load("ws")
	require.NoError(t, err)
	assert.Nil(t, data, "missing snapshot loads as nil")

	require.NoError(t, b.Save("ws", []byte{1, 2, 3}))
	data, err = b.Load("ws")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = os.Stat(filepath.Join(dir, "ws.cbor"))
	assert.NoError(t, err)

	_, err = b.Load("../ws")
	assert.Error(t, err)
}

func TestFileBacking_Watch(t *testing.T) {
	dir := t.TempDir()
	fs := fsops.NewRealFS()
	b := NewFileBacking(fs, dir, zerolog.Nop())

	var changes atomic.Int32
	stop, err := b.Watch("ws", func() { changes.Add(1) })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, fs.AtomicWrite(filepath.Join(dir, "other.cbor"), []byte{1}, 0644))
	require.NoError(t, b.Save("ws", []byte{2}))

	require.Eventually(t, func() bool { return changes.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	stop()
	stop()
	seen := changes.Load()
	require.NoError(t, b.Save("ws", []byte{3}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, changes.Load())
}

func TestMemoryBacking_WatchAndHold(t *testing.T) {
	b := NewMemoryBacking()

	var changes atomic.Int32
	stop, err := b.Watch("ws", func() { changes.Add(1) })
	require.NoError(t, err)

	require.NoError(t, b.Save("other", []byte{1}))
	require.NoError(t, b.Save("ws", []byte{1}))
	require.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	release := b.Hold()
	loaded := make(chan []byte)
	go func() {
		data, _ := b.Load("ws")
		loaded <- data
	}()

	select {
	case <-loaded:
		t.Fatal("load returned while held")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	assert.Equal(t, []byte{1}, <-loaded)
	assert.Equal(t, 1, b.Loads("ws"))
}

func TestBuildBackingFromDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		dsn     string
		wantDir string
		memory  bool
		wantErr bool
	}{
		{name: "bare path", dsn: dir, wantDir: dir},
		{name: "file url", dsn: "file://" + dir, wantDir: dir},
		{name: "memory", dsn: "memory://", memory: true},
		{name: "mem alias", dsn: "MEM://", memory: true},
		{name: "empty", dsn: "  ", wantErr: true},
		{name: "unsupported", dsn: "s3://bucket/docs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backing, err := BuildBackingFromDSN(tt.dsn, zerolog.Nop())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDSN)
				return
			}
			require.NoError(t, err)
			if tt.memory {
				assert.IsType(t, &MemoryBacking{}, backing)
				return
			}
			fb, ok := backing.(*FileBacking)
			require.True(t, ok)
			assert.Equal(t, tt.wantDir, fb.Dir())
		})
	}
}

func TestRegisterBackingFactory(t *testing.T) {
	shared := NewMemoryBacking()
	RegisterBackingFactory(" Shared ", func(string, zerolog.Logger) (Backing, error) {
		return shared, nil
	})

	got, err := BuildBackingFromDSN("shared://anything", zerolog.Nop())
	require.NoError(t, err)
	assert.Same(t, shared, got)
}

func TestWithoutWatch(t *testing.T) {
	b := NewMemoryBacking()
	w := WithoutWatch(b)

	var changes atomic.Int32
	stop, err := w.Watch("ws", func() { changes.Add(1) })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, w.Save("ws", []byte{1}))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, changes.Load())

	data, err := w.Load("ws")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
}
