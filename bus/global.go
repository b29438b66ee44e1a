package bus

var defaultBus Bus

func init() {
	defaultBus = NewLocal(WithName("default"))
}

// Default returns the process-global in-process bus.
func Default() Bus { return defaultBus }

// Subscribe registers fn on the default bus.
func Subscribe(topic Topic, fn any) error {
	return defaultBus.Subscribe(topic, fn)
}

// SubscribeOnce registers fn on the default bus for a single publish.
func SubscribeOnce(topic Topic, fn any) error {
	return defaultBus.SubscribeOnce(topic, fn)
}

// Unsubscribe removes fn from the default bus.
func Unsubscribe(topic Topic, fn any) error {
	return defaultBus.Unsubscribe(topic, fn)
}

// Publish delivers args to every handler subscribed to topic on the
// default bus.
func Publish(topic Topic, args ...any) error {
	return defaultBus.Publish(topic, args...)
}
