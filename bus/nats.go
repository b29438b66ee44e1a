package bus

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/fogfish/opts"
	"github.com/nats-io/nats.go"

	"github.com/shoreleave/shoreleave-pubsub/internal/reflectx"
	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// NATSBus proxies the bus contract onto a NATS connection. Topics map to
// subjects, optionally under a prefix so multiple buses can share one
// server. Delivery semantics are whatever the NATS server provides.
type NATSBus struct {
	conn   *nats.Conn
	prefix string

	mu   sync.Mutex
	subs map[Topic][]*natsBinding
}

type natsBinding struct {
	handler *eventHandler
	sub     *nats.Subscription
}

// WithSubjectPrefix namespaces every topic under prefix + ".".
var WithSubjectPrefix = opts.ForName[NATSBus, string]("prefix")

// NATS creates a bus backed by an existing NATS connection.
func NATS(conn *nats.Conn, options ...opts.Option[NATSBus]) *NATSBus {
	b := &NATSBus{
		conn: conn,
		subs: make(map[Topic][]*natsBinding),
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	return b
}

func (b *NATSBus) subject(topic Topic) string {
	if b.prefix == "" {
		return string(topic)
	}
	return b.prefix + "." + string(topic)
}

func (b *NATSBus) subscribe(topic Topic, fn any, once bool) error {
	h, err := newEventHandler(fn, once)
	if err != nil {
		return err
	}

	ft := reflect.TypeOf(fn)
	nsub, err := b.conn.Subscribe(b.subject(topic), func(msg *nats.Msg) {
		args, derr := decodeArgs(msg.Data, ft)
		if derr != nil {
			slog.Error("failed to decode published arguments", slogx.Topic(topic), slogx.Error(derr))
			return
		}
		if ierr := h.invoke(args); ierr != nil {
			slog.Warn("handler failed during publish", slogx.Topic(topic),
				slogx.Handler(reflectx.FunctionName(fn)), slogx.Error(ierr))
		}
	})
	if err != nil {
		return fmt.Errorf("bus: subscribe %q: %w", topic, err)
	}
	if once {
		if err := nsub.AutoUnsubscribe(1); err != nil {
			_ = nsub.Unsubscribe()
			return fmt.Errorf("bus: subscribe-once %q: %w", topic, err)
		}
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], &natsBinding{handler: h, sub: nsub})
	b.mu.Unlock()
	return nil
}

// Subscribe registers fn for every publish on topic.
func (b *NATSBus) Subscribe(topic Topic, fn any) error {
	return b.subscribe(topic, fn, false)
}

// SubscribeOnce registers fn for exactly the next publish on topic. The
// server-side subscription auto-unsubscribes after one delivery.
func (b *NATSBus) SubscribeOnce(topic Topic, fn any) error {
	return b.subscribe(topic, fn, true)
}

// Unsubscribe removes the earliest registration of fn on topic. It is a
// no-op when fn was never subscribed.
func (b *NATSBus) Unsubscribe(topic Topic, fn any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bindings := b.subs[topic]
	for i, binding := range bindings {
		if binding.handler.matches(fn) {
			b.subs[topic] = append(bindings[:i:i], bindings[i+1:]...)
			if err := binding.sub.Unsubscribe(); err != nil {
				return fmt.Errorf("bus: unsubscribe %q: %w", topic, err)
			}
			return nil
		}
	}
	return nil
}

// Publish marshals args into an envelope and publishes it on the topic's
// subject.
func (b *NATSBus) Publish(topic Topic, args ...any) error {
	data, err := encodeArgs(args)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject(topic), data)
}
