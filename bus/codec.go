package bus

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// envelope is the wire form remote transports exchange: the published
// argument list, each element marshaled independently so subscribers can
// decode into their own parameter types.
type envelope struct {
	Args []json.RawMessage `json:"args"`
}

func encodeArgs(args []any) ([]byte, error) {
	env := envelope{Args: make([]json.RawMessage, len(args))}
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("bus: encode argument %d: %w", i, err)
		}
		env.Args[i] = raw
	}
	return json.Marshal(env)
}

// decodeArgs unpacks an envelope into values matching the handler's
// parameter types. Payloads that are not envelopes are rejected before any
// allocation happens.
func decodeArgs(data []byte, ft reflect.Type) ([]any, error) {
	if !gjson.ValidBytes(data) || !gjson.GetBytes(data, "args").IsArray() {
		return nil, fmt.Errorf("bus: payload is not an argument envelope")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bus: decode envelope: %w", err)
	}

	args := make([]any, len(env.Args))
	for i, raw := range env.Args {
		pt := paramType(ft, i)
		if pt == nil {
			return nil, fmt.Errorf("bus: handler expects %d arguments, envelope carries %d", ft.NumIn(), len(env.Args))
		}
		pv := reflect.New(pt)
		if err := json.Unmarshal(raw, pv.Interface()); err != nil {
			return nil, fmt.Errorf("bus: decode argument %d into %s: %w", i, pt, err)
		}
		args[i] = pv.Elem().Interface()
	}
	return args, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	last := ft.NumIn() - 1
	switch {
	case ft.IsVariadic() && i >= last:
		return ft.In(last).Elem()
	case i <= last:
		return ft.In(i)
	default:
		return nil
	}
}
