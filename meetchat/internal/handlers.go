package internal

import (
	"sync"

	"github.com/samber/lo"
)

// Handlers is a registry of event callbacks shared by the channel adapters.
type Handlers[T any] struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(T)
}

// Add registers fn and returns a function removing it. Calling the returned
// function more than once is a no-op.
func (h *Handlers[T]) Add(fn func(T)) func() {
	h.mu.Lock()
	if h.fns == nil {
		h.fns = make(map[int]func(T))
	}
	h.nextID++
	id := h.nextID
	h.fns[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.fns, id)
			h.mu.Unlock()
		})
	}
}

// Dispatch calls every registered handler with v.
func (h *Handlers[T]) Dispatch(v T) {
	h.mu.RLock()
	fns := lo.Values(h.fns)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered handlers.
func (h *Handlers[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.fns)
}
