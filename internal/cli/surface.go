package cli

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/engine"
)

// outlineBlock is one line of a rendered page outline.
type outlineBlock struct {
	Depth   int            `json:"depth"`
	ID      string         `json:"id"`
	Flavour string         `json:"flavour"`
	Props   map[string]any `json:"props,omitempty"`
}

// surfaceEvent is the JSON form of what the terminal surface shows.
type surfaceEvent struct {
	Event     string         `json:"event"`
	Workspace string         `json:"workspace"`
	Page      string         `json:"page,omitempty"`
	Blocks    []outlineBlock `json:"blocks,omitempty"`
}

// terminalSurface renders attached views as a page outline on the command
// output.
type terminalSurface struct {
	json bool

	mu        sync.Mutex
	current   *engine.EditorView
	workspace string
	changed   chan struct{}
}

func newTerminalSurface(json bool) *terminalSurface {
	return &terminalSurface{
		json:    json,
		changed: make(chan struct{}),
	}
}

func (s *terminalSurface) Attach(view *engine.EditorView) error {
	page := view.Page()
	if page == nil {
		return fmt.Errorf("view has no page")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.render("attach", page); err != nil {
		return err
	}
	s.current = view
	s.workspace = page.Workspace()
	s.notify()
	return nil
}

func (s *terminalSurface) Detach(view *engine.EditorView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != view {
		return fmt.Errorf("view is not attached")
	}

	ws := s.workspace
	s.current = nil
	s.workspace = ""
	s.notify()

	if s.json {
		return outputJSON(surfaceEvent{Event: "detach", Workspace: ws})
	}
	PrintEmptyState(fmt.Sprintf("closed %s", ws))
	return nil
}

// Refresh re-renders the attached view, if any.
func (s *terminalSurface) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	page := s.current.Page()
	if page == nil {
		return nil
	}
	return s.render("refresh", page)
}

// Attached returns the workspace of the attached view, or "".
func (s *terminalSurface) Attached() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspace
}

// Changed returns a channel closed on the next attach or detach.
func (s *terminalSurface) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// notify wakes Changed waiters. The caller holds s.mu.
func (s *terminalSurface) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// render prints page. The caller holds s.mu.
func (s *terminalSurface) render(event string, page *docstore.Page) error {
	blocks, err := pageOutline(page)
	if err != nil {
		return err
	}

	if s.json {
		return outputJSON(surfaceEvent{
			Event:     event,
			Workspace: page.Workspace(),
			Page:      page.ID(),
			Blocks:    blocks,
		})
	}

	PrintSection(fmt.Sprintf("Workspace %s", page.Workspace()))
	PrintLabelValue("Page", page.ID())
	PrintLabelValue("Blocks", PrintCount(len(blocks), "block", "blocks"))
	fmt.Fprintln(out)
	for _, b := range blocks {
		line := strings.Repeat("  ", b.Depth+1) + infoColor.Sprint(b.Flavour)
		if props := formatProps(b.Props); props != "" {
			line += "  " + dimColor.Sprint(props)
		}
		PrintInfo(line)
	}
	return nil
}

// pageOutline flattens the page's block tree depth-first.
func pageOutline(page *docstore.Page) ([]outlineBlock, error) {
	var blocks []outlineBlock
	err := page.Walk(func(b docstore.Block, depth int) error {
		blocks = append(blocks, outlineBlock{
			Depth:   depth,
			ID:      b.ID,
			Flavour: b.Flavour,
			Props:   b.Props,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", page.ID(), err)
	}
	return blocks, nil
}

// formatProps renders props as sorted key=value pairs.
func formatProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := props[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s=%q", k, v))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
