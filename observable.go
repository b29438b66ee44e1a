package pubsub

import (
	"log/slog"

	"github.com/shoreleave/shoreleave-pubsub/bus"
	"github.com/shoreleave/shoreleave-pubsub/internal/identity"
	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// Observable is the narrow contract for entities that support external
// change observation: mutable cells, key/value stores, and anything else
// that can report (watch key, previous value, current value) on mutation.
// The cell and store packages satisfy it.
type Observable interface {
	// Watch registers fn under key, replacing any watcher already
	// registered under the same key.
	Watch(key string, fn func(key string, old, new any))
	// Unwatch removes the watcher registered under key.
	Unwatch(key string)
}

// observableStrategy wires observable entities by registering a watcher
// keyed by the bus's identity. The entity itself is returned unchanged;
// its mutations publish {old, new} deltas under its topic. Unlike the
// function kind there is no wrapping, so idempotence rests entirely on
// the wiring record: a (entity, bus) pair is wired at most once.
type observableStrategy struct {
	reg *Registry
}

func (s observableStrategy) Match(v any) bool {
	_, ok := v.(Observable)
	return ok
}

func (s observableStrategy) Topicify(v any) string {
	return s.reg.record(identity.Key(v)).topic
}

func (s observableStrategy) IsPublishized(v any) (string, bool) {
	if rec, ok := s.reg.recordFor(identity.Key(v)); ok {
		return rec.topic, true
	}
	return "", false
}

func (s observableStrategy) Publishize(v any, b bus.Bus) (any, error) {
	obs := v.(Observable)
	rec := s.reg.record(identity.Key(v))
	busKey := identity.Key(b)

	if !rec.addBus(busKey) {
		return v, nil
	}

	topic := bus.Topic(rec.topic)
	obs.Watch(busKey, func(_ string, old, new any) {
		if err := b.Publish(topic, bus.Change{Old: old, New: new}); err != nil {
			slog.Warn("publish of observed change failed", slogx.Topic(topic), slogx.Error(err))
		}
	})
	return v, nil
}
