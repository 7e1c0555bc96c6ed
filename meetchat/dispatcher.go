package meetchat

import (
	"sync"

	"github.com/samber/lo"
)

type observer struct {
	id int
	fn func(Snapshot)
}

// Dispatcher routes snapshots and state changes to registered callbacks.
// Observers are called in subscription order.
type Dispatcher struct {
	mu        sync.RWMutex
	nextID    int
	observers []observer
	onState   func(StateEvent)
}

// Subscribe registers fn and returns its handle for Unsubscribe.
func (d *Dispatcher) Subscribe(fn func(Snapshot)) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.observers = append(d.observers, observer{id: d.nextID, fn: fn})
	return d.nextID
}

// Unsubscribe removes the observer registered under id.
func (d *Dispatcher) Unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = lo.Reject(d.observers, func(o observer, _ int) bool { return o.id == id })
}

// Len returns the number of registered observers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

func (d *Dispatcher) SetOnState(fn func(StateEvent)) {
	d.mu.Lock()
	d.onState = fn
	d.mu.Unlock()
}

// DispatchSnapshot delivers snap to every observer synchronously.
func (d *Dispatcher) DispatchSnapshot(snap Snapshot) {
	d.mu.RLock()
	fns := lo.Map(d.observers, func(o observer, _ int) func(Snapshot) { return o.fn })
	d.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// DispatchState delivers a connection state change.
func (d *Dispatcher) DispatchState(ev StateEvent) {
	d.mu.RLock()
	fn := d.onState
	d.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}
