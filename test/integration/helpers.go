package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/blockpad/internal/clock"
	"github.com/danieljhkim/blockpad/internal/config"
	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/engine"
	"github.com/danieljhkim/blockpad/internal/fsops"
	"github.com/danieljhkim/blockpad/internal/registry"
	"github.com/danieljhkim/blockpad/internal/state"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

const waitTimeout = 10 * time.Second

// testEnv is the data shared by sessions: the workspace list lives in an
// in-memory filesystem, documents in a real directory so file watching works.
type testEnv struct {
	fs      *fsops.MemFS
	docsDir string
	clock   *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		fs:      fsops.NewMemFS(),
		docsDir: t.TempDir(),
		clock:   clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

// testSession is one running engine over a testEnv, standing in for one
// process.
type testSession struct {
	eng *engine.Engine
	reg *registry.Registry
}

// open starts a session. It is closed when the test ends unless closed
// earlier.
func (env *testEnv) open(t *testing.T) *testSession {
	t.Helper()

	kv := state.NewFileKV(env.fs, "/blockpad/state")
	backing := syncprovider.NewFileBacking(fsops.NewRealFS(), env.docsDir, zerolog.Nop())
	reg := registry.New(
		syncprovider.NewFactory(backing),
		registry.WithStoreOptions(docstore.WithClock(env.clock)),
	)

	eng, err := engine.New(reg, state.NewIDList(kv, config.DefaultWorkspaceID), zerolog.Nop())
	if err != nil {
		_ = reg.Close()
		t.Fatalf("engine.New() error = %v", err)
	}

	s := &testSession{eng: eng, reg: reg}
	t.Cleanup(s.close)
	return s
}

func (s *testSession) close() {
	_ = s.eng.Close()
	_ = s.reg.Close()
}

// handle selects id and waits for its document.
func (s *testSession) handle(t *testing.T, id string) *engine.Handle {
	t.Helper()
	if err := s.eng.Select(id); err != nil {
		t.Fatalf("Select(%q) error = %v", id, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	h, err := s.eng.WaitHandle(ctx, id)
	if err != nil {
		t.Fatalf("WaitHandle(%q) error = %v", id, err)
	}
	return h
}

// frameID returns the id of the page's frame block.
func frameID(t *testing.T, page *docstore.Page) string {
	t.Helper()
	for _, b := range page.Blocks() {
		if b.Flavour == docstore.FlavourFrame {
			return b.ID
		}
	}
	t.Fatal("page has no frame")
	return ""
}

// paragraphTexts returns the text of every paragraph in outline order.
func paragraphTexts(t *testing.T, page *docstore.Page) []string {
	t.Helper()
	var texts []string
	err := page.Walk(func(b docstore.Block, depth int) error {
		if b.Flavour == docstore.FlavourParagraph {
			text, _ := b.Props["text"].(string)
			texts = append(texts, text)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return texts
}

// eventually polls cond until it holds or the wait times out.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
