// Package bus defines the publish/subscribe contract the topicification
// protocol is written against, together with three transports that satisfy
// it: a synchronous in-process bus, a NATS-backed remote proxy, and a
// Redis-backed remote proxy.
//
// Design decisions:
//   - Four operations only: Subscribe, SubscribeOnce, Unsubscribe, Publish.
//     The protocol layer never assumes anything beyond them, so transports
//     are interchangeable.
//   - Handlers are plain functions: any func whose parameters can be
//     satisfied by the published arguments may subscribe. Invocation goes
//     through reflection, the same way the handler would have been called
//     directly.
//   - Local fan-out is synchronous and in subscription order on the
//     publisher's goroutine. A panicking handler is recovered and logged;
//     later handlers still receive the event.
//   - SubscribeOnce removes the handler under the bus lock before the
//     callback runs, so it fires exactly once even with racing publishes.
//   - Unsubscribe of a handler that was never subscribed is a no-op.
//
// Remote transports serialize the published arguments into a JSON envelope
// and decode them back into the subscriber's parameter types. Delivery
// ordering and handler isolation on those transports are whatever the
// underlying broker provides.
//
// Example:
//
//	b := bus.NewLocal()
//	_ = b.Subscribe("search:results", func(results []string) {
//		render(results)
//	})
//	_ = b.Publish("search:results", []string{"cat1", "cat2"})
package bus
