// Package cell provides an observable mutable reference cell. A cell holds
// a single value; watchers registered by key are notified synchronously,
// in registration order, after every mutation.
//
// Cells satisfy the observable contract the pubsub package wires buses
// against, so any cell can be publishized onto a bus without the cell
// knowing about buses at all.
package cell

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Cell is a mutable reference with change observation.
type Cell struct {
	mu      sync.Mutex
	value   any
	watches *orderedmap.OrderedMap[string, func(key string, old, new any)]
}

// New creates a cell holding v.
func New(v any) *Cell {
	return &Cell{
		value:   v,
		watches: orderedmap.New[string, func(key string, old, new any)](),
	}
}

// Get returns the current value.
func (c *Cell) Get() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the current value and returns the previous one. Watchers
// run on the caller's goroutine after the new value is visible.
func (c *Cell) Set(v any) any {
	c.mu.Lock()
	old := c.value
	c.value = v
	fire := c.snapshotWatches()
	c.mu.Unlock()

	c.notify(fire, old, v)
	return old
}

// Swap applies fn to the current value, stores the result, and returns it.
// fn runs under the cell lock and must not touch the cell itself.
func (c *Cell) Swap(fn func(old any) any) any {
	c.mu.Lock()
	old := c.value
	c.value = fn(old)
	v := c.value
	fire := c.snapshotWatches()
	c.mu.Unlock()

	c.notify(fire, old, v)
	return v
}

// Watch registers fn under key. Registering an existing key replaces the
// previous watcher, keeping its position in the notification order.
func (c *Cell) Watch(key string, fn func(key string, old, new any)) {
	c.mu.Lock()
	c.watches.Set(key, fn)
	c.mu.Unlock()
}

// Unwatch removes the watcher registered under key, if any.
func (c *Cell) Unwatch(key string) {
	c.mu.Lock()
	c.watches.Delete(key)
	c.mu.Unlock()
}

type watchEntry struct {
	key string
	fn  func(key string, old, new any)
}

func (c *Cell) snapshotWatches() []watchEntry {
	fire := make([]watchEntry, 0, c.watches.Len())
	for pair := c.watches.Oldest(); pair != nil; pair = pair.Next() {
		fire = append(fire, watchEntry{key: pair.Key, fn: pair.Value})
	}
	return fire
}

func (c *Cell) notify(fire []watchEntry, old, new any) {
	for _, w := range fire {
		w.fn(w.key, old, new)
	}
}
