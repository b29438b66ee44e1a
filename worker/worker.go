// Package worker provides background-worker handles: a goroutine draining
// a message inbox through a handler function, with taps observing
// consecutive results.
//
// Worker integration with the pubsub protocol is deliberately not baked
// into the core: RegisterKind wires the worker kind into a registry
// post-hoc, exercising the protocol's extension hook.
package worker

import (
	"context"
	"errors"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrClosed is returned by Post after Close.
	ErrClosed = errors.New("worker: closed")
	// ErrInboxFull is returned when the inbox buffer is saturated.
	ErrInboxFull = errors.New("worker: inbox full")
)

const inboxSize = 64

// Worker runs fn over posted messages on a single background goroutine.
type Worker struct {
	inbox chan any
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	last   any
	taps   *orderedmap.OrderedMap[string, func(old, new any)]
}

// Spawn starts a worker running fn for every posted message. The worker
// stops when ctx is canceled or Close is called.
func Spawn(ctx context.Context, fn func(ctx context.Context, msg any) any) *Worker {
	w := &Worker{
		inbox: make(chan any, inboxSize),
		done:  make(chan struct{}),
		taps:  orderedmap.New[string, func(old, new any)](),
	}

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-w.inbox:
				if !ok {
					return
				}
				w.deliver(fn(ctx, msg))
			}
		}
	}()
	return w
}

// Post hands msg to the worker. It never blocks: a saturated inbox is
// reported as ErrInboxFull.
func (w *Worker) Post(msg any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.inbox <- msg:
		return nil
	default:
		return ErrInboxFull
	}
}

// Close stops accepting messages and waits for in-flight ones to finish.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.inbox)
	}
	w.mu.Unlock()
	<-w.done
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Last returns the most recent result, or nil before the first one.
func (w *Worker) Last() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Tap registers fn under key to observe consecutive results: fn receives
// the previous and the new result after every processed message.
// Registering an existing key replaces that tap.
func (w *Worker) Tap(key string, fn func(old, new any)) {
	w.mu.Lock()
	w.taps.Set(key, fn)
	w.mu.Unlock()
}

// Untap removes the tap registered under key, if any.
func (w *Worker) Untap(key string) {
	w.mu.Lock()
	w.taps.Delete(key)
	w.mu.Unlock()
}

func (w *Worker) deliver(result any) {
	w.mu.Lock()
	old := w.last
	w.last = result
	fire := make([]func(old, new any), 0, w.taps.Len())
	for pair := w.taps.Oldest(); pair != nil; pair = pair.Next() {
		fire = append(fire, pair.Value)
	}
	w.mu.Unlock()

	for _, tap := range fire {
		tap(old, result)
	}
}
