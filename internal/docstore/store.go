// Package docstore is the local document container for a workspace.
//
// A Store holds pages; each page holds a tree of typed blocks whose props are
// validated against registered JSON Schemas. Local edits are recorded in an
// undo history. Snapshots applied by a sync provider merge into the store by
// id and are never undoable.
package docstore

import (
	"fmt"
	"slices"
	"sync"

	"github.com/danieljhkim/blockpad/internal/clock"
)

// OriginLocal marks updates caused by edits made through the Store API.
const OriginLocal = "local"

// Update describes a change to the store.
type Update struct {
	// Origin is OriginLocal for edits, or the origin passed to Apply.
	Origin string

	// Page is the page that changed. Empty when an applied snapshot touched
	// several pages.
	Page string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to timestamp new pages.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

type opKind int

const (
	opCreatePage opKind = iota
	opAddBlock
)

type historyOp struct {
	kind  opKind
	page  string
	block string
}

type storeSub struct {
	id uint64
	fn func(Update)
}

// Store is a document container. It is safe for concurrent use.
type Store struct {
	id    string
	clock clock.Clock

	mu      sync.RWMutex
	schemas map[string]*compiledSchema
	pages   map[string]*pageData
	order   []string
	history []historyOp
	subs    []storeSub
	nextSub uint64
}

// New creates an empty store for the workspace id.
func New(id string, opts ...Option) *Store {
	s := &Store{
		id:      id,
		clock:   &clock.RealClock{},
		schemas: make(map[string]*compiledSchema),
		pages:   make(map[string]*pageData),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the workspace id the store was created for.
func (s *Store) ID() string {
	return s.id
}

// Register compiles and adds block schemas. Registration is all or nothing.
func (s *Store) Register(schemas ...BlockSchema) error {
	compiled := make([]*compiledSchema, 0, len(schemas))
	for _, schema := range schemas {
		c, err := compileSchema(schema)
		if err != nil {
			return fmt.Errorf("failed to register schema: %w", err)
		}
		compiled = append(compiled, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(compiled))
	for _, c := range compiled {
		if _, ok := s.schemas[c.Flavour]; ok || seen[c.Flavour] {
			return fmt.Errorf("%w: %s", ErrDuplicateSchema, c.Flavour)
		}
		seen[c.Flavour] = true
	}
	for _, c := range compiled {
		s.schemas[c.Flavour] = c
	}
	return nil
}

// Flavours returns the registered flavours, sorted.
func (s *Store) Flavours() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.schemas))
	for f := range s.schemas {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// IsEmpty reports whether the store has no pages.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages) == 0
}

// CreatePage adds an empty page. The creation is undoable.
func (s *Store) CreatePage(id string) (*Page, error) {
	if id == "" {
		return nil, fmt.Errorf("page id is empty")
	}

	s.mu.Lock()
	if _, ok := s.pages[id]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPageExists, id)
	}
	s.pages[id] = newPageData(id, s.clock.Now())
	s.order = append(s.order, id)
	s.history = append(s.history, historyOp{kind: opCreatePage, page: id})
	s.mu.Unlock()

	s.emit(Update{Origin: OriginLocal, Page: id})
	return &Page{store: s, id: id}, nil
}

// GetPage returns the page with the given id.
func (s *Store) GetPage(id string) (*Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.pages[id]; !ok {
		return nil, false
	}
	return &Page{store: s, id: id}, true
}

// Pages returns page ids in creation order.
func (s *Store) Pages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// ResetHistory discards the undo history.
func (s *Store) ResetHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// CanUndo reports whether there is anything to undo.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history) > 0
}

// Undo reverts the most recent local edit.
func (s *Store) Undo() error {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	op := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	switch op.kind {
	case opCreatePage:
		delete(s.pages, op.page)
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == op.page })
	case opAddBlock:
		if p, ok := s.pages[op.page]; ok {
			p.remove(op.block)
		}
	}
	s.mu.Unlock()

	s.emit(Update{Origin: OriginLocal, Page: op.page})
	return nil
}

// Subscribe registers fn to be called after every change, on the goroutine
// that made it. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Update)) (cancel func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, storeSub{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs = slices.DeleteFunc(s.subs, func(sub storeSub) bool { return sub.id == id })
		})
	}
}

func (s *Store) emit(u Update) {
	s.mu.RLock()
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(u)
	}
}
