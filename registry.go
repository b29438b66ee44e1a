package pubsub

import (
	"fmt"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/shoreleave/shoreleave-pubsub/bus"
	"github.com/shoreleave/shoreleave-pubsub/internal/identity"
)

// Strategy is the per-kind implementation triple of the topicification
// protocol. Strategies are consulted in registration order; the first one
// whose Match accepts the value handles it.
type Strategy interface {
	// Match reports whether this strategy handles v.
	Match(v any) bool
	// Topicify returns v's stable topic identifier, deriving and
	// remembering one on first use. It never touches bus wiring.
	Topicify(v any) string
	// IsPublishized returns the topic identifier assigned to v, if one
	// ever was.
	IsPublishized(v any) (string, bool)
	// Publishize wires v onto b and returns the wired form. Wiring an
	// already-wired (value, bus) pair returns the existing wired form
	// unchanged.
	Publishize(v any, b bus.Bus) (any, error)
}

// Registry dispatches protocol operations to kind strategies and owns the
// wiring records that make repeat wiring idempotent.
type Registry struct {
	mu    sync.RWMutex
	kinds *orderedmap.OrderedMap[string, Strategy]

	records *haxmap.Map[string, *wiringRecord]
}

// WithKind registers a strategy during construction. Kinds registered this
// way are consulted before the built-in function, observable and topic
// kinds.
func WithKind(name string, s Strategy) opts.Option[Registry] {
	return opts.Type[Registry](func(r *Registry) error {
		if s == nil {
			return fmt.Errorf("pubsub: kind %q: nil strategy", name)
		}
		r.register(name, s)
		return nil
	})
}

// NewRegistry creates a registry with the built-in kinds installed.
func NewRegistry(options ...opts.Option[Registry]) *Registry {
	r := &Registry{
		kinds:   orderedmap.New[string, Strategy](),
		records: haxmap.New[string, *wiringRecord](),
	}
	if err := opts.Apply(r, options); err != nil {
		panic(err)
	}
	r.register("func", funcStrategy{reg: r})
	r.register("observable", observableStrategy{reg: r})
	r.register("topic", topicStrategy{})
	return r
}

// RegisterKind adds a strategy for a new value kind without touching the
// existing ones. Re-registering a name replaces that kind's strategy in
// place.
func (r *Registry) RegisterKind(name string, s Strategy) {
	if s == nil {
		panic(fmt.Sprintf("pubsub: kind %q: nil strategy", name))
	}
	r.register(name, s)
}

func (r *Registry) register(name string, s Strategy) {
	r.mu.Lock()
	r.kinds.Set(name, s)
	r.mu.Unlock()
}

func (r *Registry) strategyFor(v any) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for pair := r.kinds.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Match(v) {
			return pair.Value, true
		}
	}
	return nil, false
}

// Topicify derives a stable topic identifier for v. Values no strategy
// recognizes degrade to their identity key, which is a usable topic even
// though nothing will ever publish on it spontaneously.
func (r *Registry) Topicify(v any) string {
	if s, ok := r.strategyFor(v); ok {
		return s.Topicify(v)
	}
	return identity.Key(v)
}

// IsPublishized returns the topic identifier assigned to v, if v was ever
// topicified or wired.
func (r *Registry) IsPublishized(v any) (string, bool) {
	if s, ok := r.strategyFor(v); ok {
		return s.IsPublishized(v)
	}
	return "", false
}

// Publishize wires v onto b and returns the wired form: a wrapped function
// for function values, the value itself for observable entities and plain
// topic keys. Wiring the same (value, bus) pair twice is a no-op.
func (r *Registry) Publishize(v any, b bus.Bus) (any, error) {
	s, ok := r.strategyFor(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKind, v)
	}
	return s.Publishize(v, b)
}

// wiringRecord is the per-entity bookkeeping behind idempotent wiring: the
// assigned topic and the set of buses the entity is already wired to. Once
// created it lives as long as the registry; there is deliberately no
// unwire operation.
type wiringRecord struct {
	topic string

	mu    sync.Mutex
	buses map[string]struct{}
}

// record returns the wiring record for an identity key, assigning the
// topic on first use. The topic is the identity key itself and never
// changes afterwards.
func (r *Registry) record(key string) *wiringRecord {
	rec, _ := r.records.GetOrCompute(key, func() *wiringRecord {
		return &wiringRecord{topic: key, buses: make(map[string]struct{})}
	})
	return rec
}

func (r *Registry) recordFor(key string) (*wiringRecord, bool) {
	return r.records.Get(key)
}

// addBus marks the record wired to busKey, reporting false when it already
// was.
func (w *wiringRecord) addBus(busKey string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, wired := w.buses[busKey]; wired {
		return false
	}
	w.buses[busKey] = struct{}{}
	return true
}
