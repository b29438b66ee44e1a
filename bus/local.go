package bus

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/fogfish/opts"
	"github.com/google/uuid"

	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// Local is the reference in-process transport. Fan-out is synchronous on
// the publisher's goroutine, in subscription order. One handler's failure
// is recovered and logged without stopping delivery to later handlers.
type Local struct {
	name     string
	mu       sync.Mutex
	handlers map[Topic][]*eventHandler
}

// WithName sets a name for the bus, used in log records.
var WithName = opts.ForName[Local, string]("name")

// NewLocal creates an in-process bus.
func NewLocal(options ...opts.Option[Local]) *Local {
	b := &Local{
		name:     "local-" + uuid.Must(uuid.NewV7()).String(),
		handlers: make(map[Topic][]*eventHandler),
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	return b
}

// Name returns the bus name.
func (b *Local) Name() string { return b.name }

func (b *Local) subscribe(topic Topic, fn any, once bool) error {
	h, err := newEventHandler(fn, once)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	b.mu.Unlock()
	return nil
}

// Subscribe registers fn for every publish on topic.
func (b *Local) Subscribe(topic Topic, fn any) error {
	return b.subscribe(topic, fn, false)
}

// SubscribeOnce registers fn for exactly the next publish on topic.
func (b *Local) SubscribeOnce(topic Topic, fn any) error {
	return b.subscribe(topic, fn, true)
}

// Unsubscribe removes the earliest registration of fn on topic. It is a
// no-op when fn was never subscribed.
func (b *Local) Unsubscribe(topic Topic, fn any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[topic]
	for i, h := range handlers {
		if h.matches(fn) {
			b.handlers[topic] = append(handlers[:i:i], handlers[i+1:]...)
			return nil
		}
	}
	return nil
}

// Publish invokes every handler currently subscribed to topic, in
// subscription order, passing args. Once-handlers are removed under the
// bus lock before invocation, so they observe at most one publish even
// with concurrent publishers. Handler errors are joined and returned
// after the full fan-out completes.
func (b *Local) Publish(topic Topic, args ...any) error {
	b.mu.Lock()
	subscribed := b.handlers[topic]
	fire := make([]*eventHandler, len(subscribed))
	copy(fire, subscribed)

	remaining := subscribed[:0:len(subscribed)]
	for _, h := range subscribed {
		if !h.once {
			remaining = append(remaining, h)
		}
	}
	if len(remaining) == 0 {
		delete(b.handlers, topic)
	} else {
		b.handlers[topic] = remaining
	}
	b.mu.Unlock()

	var errs []error
	for _, h := range fire {
		if err := h.invoke(args); err != nil {
			slog.Warn("handler failed during publish",
				slog.String("bus", b.name), slogx.Topic(topic), slogx.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
