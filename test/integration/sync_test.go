package integration

import (
	"strings"
	"testing"

	"github.com/danieljhkim/blockpad/internal/config"
	"github.com/danieljhkim/blockpad/internal/docstore"
)

func TestSync_EditReachesConcurrentSession(t *testing.T) {
	env := newTestEnv(t)
	id := config.DefaultWorkspaceID

	writer := env.open(t)
	writerPage := writer.handle(t, id).View.Page()

	reader := env.open(t)
	readerPage := reader.handle(t, id).View.Page()
	if n := len(readerPage.Blocks()); n != 4 {
		t.Fatalf("reader should load the saved skeleton, got %d blocks", n)
	}

	if _, err := writerPage.AddBlock(docstore.FlavourParagraph, map[string]any{"type": "h1", "text": "shared"}, frameID(t, writerPage)); err != nil {
		t.Fatalf("AddBlock() error = %v", err)
	}

	eventually(t, func() bool {
		return len(readerPage.Blocks()) == 5
	}, "the reader never saw the writer's paragraph")

	texts := paragraphTexts(t, readerPage)
	if strings.Join(texts, "|") != "|shared" {
		t.Errorf("reader paragraph texts = %q", texts)
	}
	if readerPage.Workspace() != writerPage.Workspace() {
		t.Errorf("sessions disagree on the workspace")
	}
}

func TestSync_DisconnectedSessionCatchesUpOnReconnect(t *testing.T) {
	env := newTestEnv(t)
	id := config.DefaultWorkspaceID

	writer := env.open(t)
	if err := writer.eng.AddWorkspace("other"); err != nil {
		t.Fatalf("AddWorkspace() error = %v", err)
	}
	writer.handle(t, id)

	reader := env.open(t)
	reader.handle(t, id)
	// Switching away disconnects the reader from id.
	reader.handle(t, "other")

	writerPage := writer.handle(t, id).View.Page()
	if _, err := writerPage.AddBlock(docstore.FlavourParagraph, map[string]any{"text": "while away"}, frameID(t, writerPage)); err != nil {
		t.Fatalf("AddBlock() error = %v", err)
	}

	readerPage := reader.handle(t, id).View.Page()
	texts := paragraphTexts(t, readerPage)
	if strings.Join(texts, "|") != "|while away" {
		t.Errorf("reader paragraph texts after reconnect = %q", texts)
	}
}
