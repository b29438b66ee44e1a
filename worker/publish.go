package worker

import (
	"log/slog"

	"github.com/alphadose/haxmap"

	pubsub "github.com/shoreleave/shoreleave-pubsub"
	"github.com/shoreleave/shoreleave-pubsub/bus"
	"github.com/shoreleave/shoreleave-pubsub/internal/identity"
	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// RegisterKind installs the worker kind into the default pubsub registry.
// After this, Publishize on a *Worker taps its results onto the bus as
// {old, new} deltas.
func RegisterKind() {
	pubsub.RegisterKind("worker", NewKind())
}

// NewKind returns a fresh worker-kind strategy, for callers composing
// their own registry with pubsub.WithKind.
func NewKind() pubsub.Strategy {
	return &kind{records: haxmap.New[string, *record]()}
}

type kind struct {
	records *haxmap.Map[string, *record]
}

type record struct {
	topic string
	buses *haxmap.Map[string, struct{}]
}

func (k *kind) Match(v any) bool {
	_, ok := v.(*Worker)
	return ok
}

func (k *kind) record(w *Worker) *record {
	key := identity.Key(w)
	rec, _ := k.records.GetOrCompute(key, func() *record {
		return &record{topic: key, buses: haxmap.New[string, struct{}]()}
	})
	return rec
}

func (k *kind) Topicify(v any) string {
	return k.record(v.(*Worker)).topic
}

func (k *kind) IsPublishized(v any) (string, bool) {
	if rec, ok := k.records.Get(identity.Key(v)); ok {
		return rec.topic, true
	}
	return "", false
}

func (k *kind) Publishize(v any, b bus.Bus) (any, error) {
	w := v.(*Worker)
	rec := k.record(w)
	busKey := identity.Key(b)

	if _, wired := rec.buses.Get(busKey); wired {
		return w, nil
	}
	rec.buses.Set(busKey, struct{}{})

	topic := bus.Topic(rec.topic)
	w.Tap(busKey, func(old, new any) {
		if err := b.Publish(topic, bus.Change{Old: old, New: new}); err != nil {
			slog.Warn("publish of worker result failed", slogx.Topic(topic), slogx.Error(err))
		}
	})
	return w, nil
}
