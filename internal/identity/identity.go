// Package identity derives stable string keys from Go values by reference
// identity. Two calls on the same value produce the same key, which makes
// the keys usable both as map/set members and as human-readable topic names.
package identity

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shoreleave/shoreleave-pubsub/internal/reflectx"
)

// Key returns a stable identity key for v.
//
// Strings are their own key. Functions key off their symbol name and code
// pointer. Pointers, channels, maps and slices key off their type name and
// referent address. Plain values, which carry no usable reference identity,
// degrade to their formatted form.
func Key(v any) string {
	switch s := v.(type) {
	case nil:
		return "nil"
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return fmt.Sprintf("%s-%08x", reflectx.FunctionName(v), rv.Pointer())
	case reflect.Ptr, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return fmt.Sprintf("%s@%08x", typeName(rv.Type()), rv.Pointer())
	case reflect.Slice:
		return fmt.Sprintf("%s@%08x+%d", typeName(rv.Type()), rv.Pointer(), rv.Len())
	default:
		return fmt.Sprintf("%s(%v)", typeName(rv.Type()), v)
	}
}

// Comparable reports whether Key(v) is derived from reference identity,
// i.e. whether the key survives mutation of the value's contents.
func Comparable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(string); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Ptr, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func typeName(t reflect.Type) string {
	name := t.String()
	// *pkg.Type reads better as pkg.Type in a topic name
	return strings.TrimPrefix(name, "*")
}
