// Package pubsub turns arbitrary program constructs into publishers on a
// message bus. Plain functions, mutable cells, persistent key/value stores
// and background workers can all be lifted into bus-compatible topics
// without coupling the code that produces values to the code that consumes
// them, and without changing the original calling semantics for callers
// that never asked for bus integration.
//
// Three operations make up the protocol:
//
//   - Topicify derives a stable topic identifier from a value. Plain
//     string keys are their own identifier; functions derive one from
//     their identity; observable entities derive one from theirs. The
//     identifier never changes for the lifetime of the value.
//   - IsPublishized reports whether a value has already been given a topic.
//   - Publishize wires a value onto a bus. Functions come back wrapped:
//     the wrapper calls through, publishes the return value under the
//     topic, and hands the return value back unchanged. Observable
//     entities come back as themselves, with a change watcher registered
//     that publishes {old, new} deltas. Wiring the same value onto the
//     same bus twice is a no-op returning the already-wired form.
//
// Dispatch is by value kind through an ordered strategy registry. New
// kinds register with RegisterKind without touching the built-in ones;
// the worker package uses exactly that hook to add worker handles as a
// topicifiable kind.
//
//	b := bus.NewLocal()
//	searched, err := pubsub.Publishize(search, b)
//	if err != nil { ... }
//	published := searched.(*pubsub.PublishedFunc)
//	_ = b.Subscribe(published.Topic(), render)
//
//	// callers see the original behavior, subscribers see every result
//	results := published.Fn().(func(string) []string)("cats")
package pubsub
