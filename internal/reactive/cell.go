// Package reactive provides observable cells and effects that re-run when
// the cells they depend on change.
//
// Cells notify subscribers synchronously on the goroutine that wrote them.
// An Effect never runs concurrently with itself: a change that arrives while
// it is running (from its own body or another goroutine) is coalesced into
// one more run after the current one finishes. Subscribers that care about
// the latest value should read it with Get rather than trust the argument
// when cells are written from several goroutines.
package reactive

import "sync"

// Source is a dependency an Effect can subscribe to.
type Source interface {
	subscribe(fn func()) (cancel func())
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Cell holds a single value and notifies subscribers when it changes.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	equal  func(a, b T) bool
	subs   []subscriber[T]
	nextID uint64
}

// NewCell creates a cell whose writes of an equal value are ignored.
func NewCell[T comparable](initial T) *Cell[T] {
	return NewCellFunc(initial, func(a, b T) bool { return a == b })
}

// NewCellFunc creates a cell using equal to suppress no-op writes.
// A nil equal makes every write notify.
func NewCellFunc[T any](initial T, equal func(a, b T) bool) *Cell[T] {
	return &Cell[T]{
		value: initial,
		equal: equal,
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v and notifies subscribers. It reports whether the value changed.
func (c *Cell[T]) Set(v T) bool {
	return c.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) atomically and notifies
// subscribers if it changed. fn must not call back into the cell.
func (c *Cell[T]) Update(fn func(current T) T) bool {
	c.mu.Lock()
	next := fn(c.value)
	if c.equal != nil && c.equal(c.value, next) {
		c.mu.Unlock()
		return false
	}
	c.value = next
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
	return true
}

// Subscribe registers fn to be called with each new value, in
// subscription order. The returned function unsubscribes.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Cell[T]) subscribe(fn func()) func() {
	return c.Subscribe(func(T) { fn() })
}
