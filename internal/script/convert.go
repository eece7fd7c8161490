package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"go.starlark.net/starlark"
)

// argsToStarlark converts validated JSON arguments into the Starlark dict
// passed to run(). Empty input becomes an empty dict.
func argsToStarlark(raw json.RawMessage) (*starlark.Dict, error) {
	if len(raw) == 0 {
		return starlark.NewDict(0), nil
	}

	var decoded map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}

	value, err := goToStarlark(decoded)
	if err != nil {
		return nil, err
	}
	dict, ok := value.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	return dict, nil
}

// goToStarlark converts a decoded JSON value into its Starlark equivalent.
func goToStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case string:
		return starlark.String(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return starlark.MakeInt64(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("unrepresentable number %q", val.String())
		}
		return starlark.Float(f), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return starlark.MakeInt64(int64(val)), nil
		}
		return starlark.Float(val), nil
	case []any:
		elems := make([]starlark.Value, 0, len(val))
		for _, item := range val {
			conv, err := goToStarlark(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, conv)
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			conv, err := goToStarlark(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), conv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// starlarkToGo converts a Starlark value into plain Go data suitable for
// JSON encoding. Used to extract metadata globals at load time.
func starlarkToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i, nil
		}
		return nil, fmt.Errorf("integer %s is out of range", val.String())
	case starlark.Float:
		return float64(val), nil
	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			conv, err := starlarkToGo(val.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			conv, err := starlarkToGo(val.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", item[0].String())
			}
			conv, err := starlarkToGo(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", v.Type())
	}
}

// resultText turns the value returned by run() into the textual tool result.
// Strings pass through verbatim; None falls back to captured print output;
// anything else is JSON-encoded when possible.
func resultText(v starlark.Value, printed string) (string, error) {
	switch val := v.(type) {
	case starlark.String:
		return string(val), nil
	case starlark.NoneType:
		return printed, nil
	default:
		conv, err := starlarkToGo(v)
		if err != nil {
			return val.String(), nil
		}
		raw, err := json.Marshal(conv)
		if err != nil {
			return val.String(), nil
		}
		return string(raw), nil
	}
}
