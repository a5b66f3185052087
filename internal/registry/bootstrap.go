package registry

import (
	"fmt"

	"github.com/danieljhkim/blockpad/internal/docstore"
)

// PageID is the page every workspace is expected to contain.
const PageID = "page0"

// Bootstrap gives an empty store its default page, or checks that a
// non-empty store has one. It reports whether the page was created.
//
// Algorithm steps:
//  1. If the store is empty, create PageID with a page root (empty title),
//     a surface and a frame under the root, and a paragraph in the frame.
//  2. Reset the undo history so the skeleton cannot be undone.
//  3. Otherwise, require PageID to exist.
func Bootstrap(store *docstore.Store) (bool, error) {
	if !store.IsEmpty() {
		if _, ok := store.GetPage(PageID); !ok {
			return false, &InvariantError{
				Workspace: store.ID(),
				Reason:    fmt.Sprintf("existing workspace has no page %q", PageID),
			}
		}
		return false, nil
	}

	page, err := store.CreatePage(PageID)
	if err != nil {
		return false, fmt.Errorf("failed to create page: %w", err)
	}
	rootID, err := page.AddBlock(docstore.FlavourPage, map[string]any{"title": ""}, "")
	if err != nil {
		return false, fmt.Errorf("failed to add page root: %w", err)
	}
	if _, err := page.AddBlock(docstore.FlavourSurface, nil, ""); err != nil {
		return false, fmt.Errorf("failed to add surface: %w", err)
	}
	frameID, err := page.AddBlock(docstore.FlavourFrame, nil, rootID)
	if err != nil {
		return false, fmt.Errorf("failed to add frame: %w", err)
	}
	if _, err := page.AddBlock(docstore.FlavourParagraph, nil, frameID); err != nil {
		return false, fmt.Errorf("failed to add paragraph: %w", err)
	}
	store.ResetHistory()
	return true, nil
}
