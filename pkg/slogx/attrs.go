// Package slogx carries small log/slog attribute helpers shared across the
// bus transports.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr with the key "error" and the error's message as
// its value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Topic returns a slog.Attr for the topic a bus operation addressed.
func Topic(topic fmt.Stringer) slog.Attr {
	return slog.String("topic", topic.String())
}

// Handler returns a slog.Attr identifying a subscribed handler by its
// derived name.
func Handler(name string) slog.Attr {
	return slog.String("handler", name)
}
