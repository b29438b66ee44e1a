package bus

import (
	"fmt"
	"reflect"

	"github.com/shoreleave/shoreleave-pubsub/internal/reflectx"
)

// ErrNotAFunction is returned when a non-function value is subscribed.
var ErrNotAFunction = fmt.Errorf("bus: handler is not a function")

type eventHandler struct {
	callback reflect.Value
	once     bool
}

func newEventHandler(fn any, once bool) (*eventHandler, error) {
	if !reflectx.IsFunction(fn) {
		return nil, fmt.Errorf("%w: %T", ErrNotAFunction, fn)
	}
	return &eventHandler{callback: reflect.ValueOf(fn), once: once}, nil
}

// matches reports whether this handler was registered from fn, by code
// pointer and type equality.
func (h *eventHandler) matches(fn any) bool {
	if !reflectx.IsFunction(fn) {
		return false
	}
	cb := reflect.ValueOf(fn)
	return h.callback.Type() == cb.Type() && h.callback.Pointer() == cb.Pointer()
}

// invoke calls the handler with the published arguments. A panicking
// handler is converted into an error so fan-out can continue; if the
// handler's last return value is a non-nil error it is returned as-is.
func (h *eventHandler) invoke(args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bus: handler %s panicked: %v", reflectx.FunctionName(h.callback.Interface()), r)
		}
	}()

	in, err := callArgs(h.callback.Type(), args)
	if err != nil {
		return err
	}
	results := h.callback.Call(in)
	if n := len(results); n > 0 {
		if cerr, ok := results[n-1].Interface().(error); ok && cerr != nil {
			return cerr
		}
	}
	return nil
}

// callArgs adapts the published arguments to the handler's parameter list.
// Nil arguments become the parameter's zero value; convertible arguments
// are converted.
func callArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("bus: handler expects at least %d arguments, published %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("bus: handler expects %d arguments, published %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := ft.In(min(i, ft.NumIn()-1))
		if ft.IsVariadic() && i >= fixed {
			pt = ft.In(ft.NumIn() - 1).Elem()
		}

		if arg == nil {
			in[i] = reflect.New(pt).Elem()
			continue
		}
		av := reflect.ValueOf(arg)
		switch {
		case av.Type().AssignableTo(pt):
			in[i] = av
		case av.Type().ConvertibleTo(pt):
			in[i] = av.Convert(pt)
		default:
			return nil, fmt.Errorf("bus: cannot pass %s as %s (argument %d)", av.Type(), pt, i)
		}
	}
	return in, nil
}
