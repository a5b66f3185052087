package engine

import (
	"sync"

	"github.com/danieljhkim/blockpad/internal/docstore"
	"github.com/danieljhkim/blockpad/internal/syncprovider"
)

// EditorView is a renderable binding to a page. Surfaces render whatever
// page is currently assigned.
type EditorView struct {
	mu   sync.Mutex
	page *docstore.Page
}

// NewEditorView creates a view with no page assigned.
func NewEditorView() *EditorView {
	return &EditorView{}
}

// SetPage assigns the page to render.
func (v *EditorView) SetPage(p *docstore.Page) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = p
}

// Page returns the assigned page, or nil.
func (v *EditorView) Page() *docstore.Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Surface is where views are displayed.
type Surface interface {
	// Attach displays view.
	Attach(view *EditorView) error

	// Detach removes a view previously attached.
	Detach(view *EditorView) error
}

// Handle is a ready-to-render document for a workspace.
type Handle struct {
	WorkspaceID string
	View        *EditorView
}

// Resolution is the outcome of resolving the selected workspace.
type Resolution struct {
	WorkspaceID string
	Handle      *Handle
	Err         error
}

// WorkspaceInfo describes one listed workspace.
type WorkspaceInfo struct {
	// ID is the workspace id
	ID string `json:"id"`

	// Selected is true for the active selection
	Selected bool `json:"selected"`

	// Loaded is true once the workspace has a registry entry
	Loaded bool `json:"loaded"`

	// State is the sync provider state, empty when not loaded
	State string `json:"state,omitempty"`

	// Error is the bootstrap or validation failure, if any
	Error string `json:"error,omitempty"`
}

// StatusResult is a snapshot of the session.
type StatusResult struct {
	// Selected is the selected workspace id, empty when none
	Selected string `json:"selected"`

	// Workspaces lists known workspaces in list order
	Workspaces []WorkspaceInfo `json:"workspaces"`

	// Connected is the number of connected or connecting providers
	Connected int `json:"connected"`
}

func isActive(s syncprovider.ConnState) bool {
	return s != syncprovider.StateDisconnected
}
