package pubsub

import (
	"fmt"

	"github.com/shoreleave/shoreleave-pubsub/bus"
)

// topicStrategy handles values that already are topic keys: strings,
// bus.Topic, and anything with a String form. Topicify is the identity
// function on them and Publishize is a wiring-free success, since a plain
// key has no activity of its own to publish.
type topicStrategy struct{}

func (topicStrategy) Match(v any) bool {
	switch v.(type) {
	case string, bus.Topic, fmt.Stringer:
		return true
	default:
		return false
	}
}

func (topicStrategy) Topicify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bus.Topic:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

func (s topicStrategy) IsPublishized(v any) (string, bool) {
	return s.Topicify(v), true
}

func (s topicStrategy) Publishize(v any, _ bus.Bus) (any, error) {
	return v, nil
}
