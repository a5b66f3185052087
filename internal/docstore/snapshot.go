package docstore

import (
	"slices"
	"time"
)

// Snapshot is the full content of a store, as persisted by sync providers.
type Snapshot struct {
	Workspace string         `cbor:"workspace" json:"workspace"`
	Pages     []PageSnapshot `cbor:"pages" json:"pages"`
}

// PageSnapshot is the content of one page. Blocks are in insertion order.
type PageSnapshot struct {
	ID        string    `cbor:"id" json:"id"`
	CreatedAt time.Time `cbor:"created_at" json:"created_at"`
	Root      string    `cbor:"root,omitempty" json:"root,omitempty"`
	Blocks    []Block   `cbor:"blocks" json:"blocks"`
}

// Snapshot returns a copy of the store's pages and blocks.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Workspace: s.id,
		Pages:     make([]PageSnapshot, 0, len(s.order)),
	}
	for _, id := range s.order {
		d := s.pages[id]
		ps := PageSnapshot{
			ID:        d.id,
			CreatedAt: d.createdAt,
			Root:      d.root,
			Blocks:    make([]Block, 0, len(d.order)),
		}
		for _, bid := range d.order {
			ps.Blocks = append(ps.Blocks, d.blocks[bid].clone())
		}
		snap.Pages = append(snap.Pages, ps)
	}
	return snap
}

// Apply merges snap into the store. Pages and blocks are matched by id and
// entries already present are kept. Children lists are unioned, existing
// order first. Applied content is not recorded in the undo history.
//
// Apply reports whether anything changed; subscribers are notified with
// origin only in that case.
func (s *Store) Apply(snap Snapshot, origin string) bool {
	s.mu.Lock()
	changed := false
	for _, ps := range snap.Pages {
		if ps.ID == "" {
			continue
		}
		d, ok := s.pages[ps.ID]
		if !ok {
			d = newPageData(ps.ID, ps.CreatedAt)
			s.pages[ps.ID] = d
			s.order = append(s.order, ps.ID)
			changed = true
		}
		if d.root == "" && ps.Root != "" {
			d.root = ps.Root
			changed = true
		}
		for _, b := range ps.Blocks {
			if b.ID == "" {
				continue
			}
			existing, ok := d.blocks[b.ID]
			if !ok {
				nb := b.clone()
				d.blocks[nb.ID] = &nb
				d.order = append(d.order, nb.ID)
				changed = true
				continue
			}
			for _, child := range b.Children {
				if !slices.Contains(existing.Children, child) {
					existing.Children = append(existing.Children, child)
					changed = true
				}
			}
		}
	}
	s.mu.Unlock()

	if changed {
		s.emit(Update{Origin: origin})
	}
	return changed
}
