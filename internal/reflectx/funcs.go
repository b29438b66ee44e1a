package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn is a callable function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FuncPointer returns the code pointer of a function value. Distinct
// top-level functions and distinct closure literals have distinct pointers;
// two instances of the same closure literal share one.
func FuncPointer(fn any) uintptr {
	if !IsFunction(fn) {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// FunctionName derives a short, human-readable name for a function value.
// Named function types report their type name; everything else falls back
// to the runtime symbol name with the package path and the "-fm" suffix of
// method values stripped.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()

	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}
	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = strings.TrimSuffix(name[lastDot+1:], "-fm")
	}
	return name
}
