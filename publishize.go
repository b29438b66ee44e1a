package pubsub

import "github.com/shoreleave/shoreleave-pubsub/bus"

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry behind the package-level protocol
// functions.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterKind adds a strategy for a new value kind to the default
// registry.
func RegisterKind(name string, s Strategy) {
	defaultRegistry.RegisterKind(name, s)
}

// Topicify derives a stable topic identifier for v using the default
// registry.
func Topicify(v any) string {
	return defaultRegistry.Topicify(v)
}

// IsPublishized reports the topic identifier assigned to v, if any, using
// the default registry.
func IsPublishized(v any) (string, bool) {
	return defaultRegistry.IsPublishized(v)
}

// Publishize wires v onto b using the default registry.
func Publishize(v any, b bus.Bus) (any, error) {
	return defaultRegistry.Publishize(v, b)
}
