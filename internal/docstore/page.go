package docstore

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Block is a node in a page's block tree. Values returned by Page are copies.
type Block struct {
	ID       string         `cbor:"id" json:"id"`
	Flavour  string         `cbor:"flavour" json:"flavour"`
	Parent   string         `cbor:"parent,omitempty" json:"parent,omitempty"`
	Children []string       `cbor:"children,omitempty" json:"children,omitempty"`
	Props    map[string]any `cbor:"props,omitempty" json:"props,omitempty"`
}

func (b *Block) clone() Block {
	return Block{
		ID:       b.ID,
		Flavour:  b.Flavour,
		Parent:   b.Parent,
		Children: slices.Clone(b.Children),
		Props:    maps.Clone(b.Props),
	}
}

type pageData struct {
	id        string
	createdAt time.Time
	root      string
	blocks    map[string]*Block
	order     []string
}

func newPageData(id string, createdAt time.Time) *pageData {
	return &pageData{
		id:        id,
		createdAt: createdAt,
		blocks:    make(map[string]*Block),
	}
}

// insert adds b and links it to its parent. The caller has validated b.
func (p *pageData) insert(b *Block) {
	p.blocks[b.ID] = b
	p.order = append(p.order, b.ID)
	if b.Parent == "" {
		p.root = b.ID
		return
	}
	if parent, ok := p.blocks[b.Parent]; ok && !slices.Contains(parent.Children, b.ID) {
		parent.Children = append(parent.Children, b.ID)
	}
}

// remove deletes a block and its subtree.
func (p *pageData) remove(id string) {
	b, ok := p.blocks[id]
	if !ok {
		return
	}
	for _, child := range slices.Clone(b.Children) {
		p.remove(child)
	}
	if parent, ok := p.blocks[b.Parent]; ok {
		parent.Children = slices.DeleteFunc(parent.Children, func(c string) bool { return c == id })
	}
	if p.root == id {
		p.root = ""
	}
	delete(p.blocks, id)
	p.order = slices.DeleteFunc(p.order, func(o string) bool { return o == id })
}

// Page is a handle to one page of a Store.
type Page struct {
	store *Store
	id    string
}

// ID returns the page id.
func (p *Page) ID() string {
	return p.id
}

// Workspace returns the id of the store the page belongs to.
func (p *Page) Workspace() string {
	return p.store.id
}

// data returns the page's state. The caller holds the store lock.
func (p *Page) data() (*pageData, error) {
	d, ok := p.store.pages[p.id]
	if !ok {
		return nil, fmt.Errorf("page %s no longer exists", p.id)
	}
	return d, nil
}

// AddBlock inserts a block and returns its id.
//
// An empty parentID attaches the block under the page root, or makes it the
// root when the page has none. Props are merged with the flavour's defaults
// and validated against its schema.
func (p *Page) AddBlock(flavour string, props map[string]any, parentID string) (string, error) {
	s := p.store

	s.mu.RLock()
	schema, ok := s.schemas[flavour]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFlavour, flavour)
	}
	normalized, err := schema.normalize(props)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	d, err := p.data()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	if parentID == "" && d.root != "" && schema.Role != RoleRoot {
		parentID = d.root
	}

	switch {
	case schema.Role == RoleRoot:
		if d.root != "" {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: page %s", ErrRootExists, p.id)
		}
		if parentID != "" {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %s must be the page root", ErrInvalidParent, flavour)
		}
	case parentID == "":
		s.mu.Unlock()
		return "", fmt.Errorf("%w: cannot add %s", ErrNoRoot, flavour)
	default:
		parent, ok := d.blocks[parentID]
		if !ok {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrBlockNotFound, parentID)
		}
		if !schema.allowsParent(parent.Flavour) {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %s cannot hold %s", ErrInvalidParent, parent.Flavour, flavour)
		}
	}

	b := &Block{
		ID:      uuid.NewString(),
		Flavour: flavour,
		Parent:  parentID,
		Props:   normalized,
	}
	d.insert(b)
	s.history = append(s.history, historyOp{kind: opAddBlock, page: p.id, block: b.ID})
	s.mu.Unlock()

	s.emit(Update{Origin: OriginLocal, Page: p.id})
	return b.ID, nil
}

// Blocks returns the page's blocks in insertion order.
func (p *Page) Blocks() []Block {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	d, err := p.data()
	if err != nil {
		return nil
	}
	out := make([]Block, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.blocks[id].clone())
	}
	return out
}

// Block returns the block with the given id.
func (p *Page) Block(id string) (Block, bool) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	d, err := p.data()
	if err != nil {
		return Block{}, false
	}
	b, ok := d.blocks[id]
	if !ok {
		return Block{}, false
	}
	return b.clone(), true
}

// Root returns the page root block.
func (p *Page) Root() (Block, bool) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	d, err := p.data()
	if err != nil || d.root == "" {
		return Block{}, false
	}
	return d.blocks[d.root].clone(), true
}

// CreatedAt returns the time the page was created.
func (p *Page) CreatedAt() time.Time {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	d, err := p.data()
	if err != nil {
		return time.Time{}
	}
	return d.createdAt
}

// Walk visits the block tree depth-first from the root, children in order.
// Returning an error from fn stops the walk.
func (p *Page) Walk(fn func(b Block, depth int) error) error {
	p.store.mu.RLock()
	d, err := p.data()
	if err != nil {
		p.store.mu.RUnlock()
		return err
	}
	type visit struct {
		block Block
		depth int
	}
	var visits []visit
	var collect func(id string, depth int)
	collect = func(id string, depth int) {
		b, ok := d.blocks[id]
		if !ok {
			return
		}
		visits = append(visits, visit{block: b.clone(), depth: depth})
		for _, child := range b.Children {
			collect(child, depth+1)
		}
	}
	if d.root != "" {
		collect(d.root, 0)
	}
	p.store.mu.RUnlock()

	for _, v := range visits {
		if err := fn(v.block, v.depth); err != nil {
			return err
		}
	}
	return nil
}
