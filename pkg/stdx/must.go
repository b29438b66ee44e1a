// Package stdx holds tiny generic helpers with no better home.
package stdx

// Must0 panics when err is not nil. It is meant for call sites where an
// error is a programming mistake rather than a runtime condition.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v when err is nil and panics otherwise.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
