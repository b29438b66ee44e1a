package pubsub

import (
	"log/slog"
	"reflect"

	"github.com/shoreleave/shoreleave-pubsub/bus"
	"github.com/shoreleave/shoreleave-pubsub/internal/identity"
	"github.com/shoreleave/shoreleave-pubsub/internal/reflectx"
	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// PublishedFunc is a function wired onto one or more buses. It owns the
// wrapped callable, the original it calls through to, the topic assigned
// at first wiring, and the set of buses it publishes on. The original
// function is never mutated; callers holding it keep the non-publishing
// behavior.
type PublishedFunc struct {
	fn    any
	orig  any
	topic string
	buses map[string]struct{}
}

// Fn returns the wrapped callable. It has the same dynamic type as the
// original function, so it can be type-asserted back to that signature.
func (p *PublishedFunc) Fn() any { return p.fn }

// Original returns the unwrapped function.
func (p *PublishedFunc) Original() any { return p.orig }

// Topic returns the topic the wrapper publishes on.
func (p *PublishedFunc) Topic() bus.Topic { return bus.Topic(p.topic) }

// Call invokes the wrapped function with args, returning its results. It
// is a reflection convenience for callers that do not want to type-assert
// Fn; arguments must match the original signature.
func (p *PublishedFunc) Call(args ...any) []any {
	fv := reflect.ValueOf(p.fn)
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.New(fv.Type().In(i)).Elem()
		} else {
			in[i] = reflect.ValueOf(arg)
		}
	}
	return valuesToAny(fv.Call(in))
}

func (p *PublishedFunc) wiredTo(busKey string) bool {
	_, ok := p.buses[busKey]
	return ok
}

// funcStrategy wires function values by decoration: Publishize returns a
// new wrapped function that calls through to the original and publishes
// the results after the call completes, before control returns to the
// caller.
type funcStrategy struct {
	reg *Registry
}

func (s funcStrategy) Match(v any) bool {
	if _, ok := v.(*PublishedFunc); ok {
		return true
	}
	return reflectx.IsFunction(v)
}

func (s funcStrategy) Topicify(v any) string {
	if pf, ok := v.(*PublishedFunc); ok {
		return pf.topic
	}
	return s.reg.record(identity.Key(v)).topic
}

func (s funcStrategy) IsPublishized(v any) (string, bool) {
	if pf, ok := v.(*PublishedFunc); ok {
		return pf.topic, true
	}
	if rec, ok := s.reg.recordFor(identity.Key(v)); ok {
		return rec.topic, true
	}
	return "", false
}

func (s funcStrategy) Publishize(v any, b bus.Bus) (any, error) {
	busKey := identity.Key(b)

	if pf, ok := v.(*PublishedFunc); ok {
		if pf.wiredTo(busKey) {
			return pf, nil
		}
		// Wiring to an additional bus decorates the already-wired form:
		// the topic is preserved, the inner wrapper keeps publishing on
		// its buses, the new wrapper adds this one.
		return wrapFunc(pf.fn, pf.orig, pf.topic, pf.buses, busKey, b), nil
	}

	topic := s.reg.record(identity.Key(v)).topic
	return wrapFunc(v, v, topic, nil, busKey, b), nil
}

func wrapFunc(fn, orig any, topic string, inherited map[string]struct{}, busKey string, b bus.Bus) *PublishedFunc {
	buses := make(map[string]struct{}, len(inherited)+1)
	for k := range inherited {
		buses[k] = struct{}{}
	}
	buses[busKey] = struct{}{}

	fv := reflect.ValueOf(fn)
	wrapper := reflect.MakeFunc(fv.Type(), func(in []reflect.Value) []reflect.Value {
		var out []reflect.Value
		if fv.Type().IsVariadic() {
			out = fv.CallSlice(in)
		} else {
			out = fv.Call(in)
		}

		// The publish happens strictly after the call completes and
		// strictly before control returns, so a once-handler registered
		// beforehand observes the result before the caller does.
		if err := b.Publish(bus.Topic(topic), valuesToAny(out)...); err != nil {
			slog.Warn("publish of function result failed",
				slogx.Topic(bus.Topic(topic)), slogx.Handler(reflectx.FunctionName(orig)), slogx.Error(err))
		}
		return out
	})

	return &PublishedFunc{
		fn:    wrapper.Interface(),
		orig:  orig,
		topic: topic,
		buses: buses,
	}
}

func valuesToAny(values []reflect.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}
	return out
}
