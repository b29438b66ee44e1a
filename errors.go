package pubsub

import "errors"

// ErrUnsupportedKind is returned by Publishize when no registered strategy
// matches the value. Unrecognized values still topicify (degrading to an
// identity key), but silently pretending to wire them would mean publish
// events that never fire, so wiring refuses instead.
var ErrUnsupportedKind = errors.New("pubsub: no topicification strategy for value kind")
