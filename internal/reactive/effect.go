package reactive

import "sync"

// Effect runs a function now and again whenever one of its dependencies
// changes. The function may return a cleanup, which runs before the next run
// and on Dispose.
type Effect struct {
	fn func() func()

	mu       sync.Mutex
	running  bool
	pending  bool
	disposed bool
	cleanup  func()
	cancels  []func()
}

// NewEffect subscribes to deps and runs fn once before returning.
func NewEffect(fn func() (cleanup func()), deps ...Source) *Effect {
	e := &Effect{fn: fn}
	for _, dep := range deps {
		e.cancels = append(e.cancels, dep.subscribe(e.schedule))
	}
	e.schedule()
	return e
}

// schedule runs the effect, or marks it for one more run if a run is
// already in progress on some goroutine. A panic in fn propagates to the
// caller and leaves the effect idle, so the next change runs it again.
func (e *Effect) schedule() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	if e.running {
		e.pending = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		e.mu.Lock()
		e.running = false
		e.pending = false
		e.mu.Unlock()
	}()

	for {
		if e.cleanup != nil {
			cleanup := e.cleanup
			e.cleanup = nil
			cleanup()
		}
		e.cleanup = e.fn()

		e.mu.Lock()
		if e.disposed {
			cleanup := e.cleanup
			e.cleanup = nil
			e.running = false
			e.mu.Unlock()
			finished = true
			if cleanup != nil {
				cleanup()
			}
			return
		}
		if !e.pending {
			e.running = false
			e.mu.Unlock()
			finished = true
			return
		}
		e.pending = false
		e.mu.Unlock()
	}
}

// Dispose unsubscribes from all dependencies and runs the last cleanup.
// If a run is in progress, its cleanup runs when that run returns.
func (e *Effect) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	cancels := e.cancels
	e.cancels = nil
	var cleanup func()
	if !e.running {
		cleanup = e.cleanup
		e.cleanup = nil
	}
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if cleanup != nil {
		cleanup()
	}
}
