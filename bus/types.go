package bus

// Topic is the key handlers are registered under and data is published to.
type Topic string

func (t Topic) String() string { return string(t) }

// Change is the payload published for an observer-wired entity: the value
// before and after a mutation.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Subscriber registers and removes handlers for a topic.
type Subscriber interface {
	// Subscribe registers handler for every future publish on topic. The
	// same handler may be registered multiple times and will fire once per
	// registration.
	Subscribe(topic Topic, handler any) error
	// SubscribeOnce registers handler for exactly the next publish on
	// topic, after which it is removed automatically.
	SubscribeOnce(topic Topic, handler any) error
	// Unsubscribe removes the earliest registration of handler on topic.
	// Removing a handler that was never subscribed is not an error.
	Unsubscribe(topic Topic, handler any) error
}

// Publisher delivers data to every handler subscribed to a topic.
type Publisher interface {
	Publish(topic Topic, args ...any) error
}

// Bus is the full contract the topicification protocol wires entities into.
type Bus interface {
	Subscriber
	Publisher
}
