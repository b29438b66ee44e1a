package bus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/fogfish/opts"
	"github.com/redis/go-redis/v9"

	"github.com/shoreleave/shoreleave-pubsub/internal/reflectx"
	"github.com/shoreleave/shoreleave-pubsub/pkg/slogx"
)

// RedisBus proxies the bus contract onto Redis pub/sub channels. Topics map
// to channels, optionally under a prefix. Delivery semantics are Redis
// fire-and-forget fan-out; subscribers on other processes see the same
// events.
type RedisBus struct {
	client redis.UniversalClient
	prefix string

	mu   sync.Mutex
	subs map[Topic][]*redisBinding
}

type redisBinding struct {
	handler *eventHandler
	pubsub  *redis.PubSub
}

// WithChannelPrefix namespaces every topic under prefix + ":".
var WithChannelPrefix = opts.ForName[RedisBus, string]("prefix")

// Redis creates a bus backed by an existing Redis client.
func Redis(client redis.UniversalClient, options ...opts.Option[RedisBus]) *RedisBus {
	b := &RedisBus{
		client: client,
		subs:   make(map[Topic][]*redisBinding),
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	return b
}

func (b *RedisBus) channel(topic Topic) string {
	if b.prefix == "" {
		return string(topic)
	}
	return b.prefix + ":" + string(topic)
}

func (b *RedisBus) subscribe(topic Topic, fn any, once bool) error {
	h, err := newEventHandler(fn, once)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ps := b.client.Subscribe(ctx, b.channel(topic))
	// Force the subscription onto the wire before we report success, so a
	// publish immediately after Subscribe returns is observed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("bus: subscribe %q: %w", topic, err)
	}

	binding := &redisBinding{handler: h, pubsub: ps}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], binding)
	b.mu.Unlock()

	ft := reflect.TypeOf(fn)
	go func() {
		for msg := range ps.Channel() {
			args, derr := decodeArgs([]byte(msg.Payload), ft)
			if derr != nil {
				slog.Error("failed to decode published arguments", slogx.Topic(topic), slogx.Error(derr))
				continue
			}
			if ierr := h.invoke(args); ierr != nil {
				slog.Warn("handler failed during publish", slogx.Topic(topic),
					slogx.Handler(reflectx.FunctionName(fn)), slogx.Error(ierr))
			}
			if once {
				b.drop(topic, binding)
				return
			}
		}
	}()
	return nil
}

func (b *RedisBus) drop(topic Topic, binding *redisBinding) {
	b.mu.Lock()
	bindings := b.subs[topic]
	for i, candidate := range bindings {
		if candidate == binding {
			b.subs[topic] = append(bindings[:i:i], bindings[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	if err := binding.pubsub.Close(); err != nil {
		slog.Warn("failed to close redis subscription", slogx.Topic(topic), slogx.Error(err))
	}
}

// Subscribe registers fn for every publish on topic.
func (b *RedisBus) Subscribe(topic Topic, fn any) error {
	return b.subscribe(topic, fn, false)
}

// SubscribeOnce registers fn for exactly the next publish on topic.
func (b *RedisBus) SubscribeOnce(topic Topic, fn any) error {
	return b.subscribe(topic, fn, true)
}

// Unsubscribe removes the earliest registration of fn on topic. It is a
// no-op when fn was never subscribed.
func (b *RedisBus) Unsubscribe(topic Topic, fn any) error {
	b.mu.Lock()
	bindings := b.subs[topic]
	var found *redisBinding
	for i, binding := range bindings {
		if binding.handler.matches(fn) {
			found = binding
			b.subs[topic] = append(bindings[:i:i], bindings[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		return nil
	}
	if err := found.pubsub.Close(); err != nil {
		return fmt.Errorf("bus: unsubscribe %q: %w", topic, err)
	}
	return nil
}

// Publish marshals args into an envelope and publishes it on the topic's
// channel.
func (b *RedisBus) Publish(topic Topic, args ...any) error {
	data, err := encodeArgs(args)
	if err != nil {
		return err
	}
	if err := b.client.Publish(context.Background(), b.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("bus: publish %q: %w", topic, err)
	}
	return nil
}
