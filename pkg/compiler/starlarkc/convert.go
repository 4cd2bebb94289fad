package starlarkc

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// goValue converts a Starlark value to a plain Go value for display.
// Values with no natural Go counterpart are returned as-is.
func goValue(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.String:
		return string(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.BigInt()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, goValue(v.Index(i)))
		}
		return out
	case starlark.Tuple:
		out := make([]any, 0, len(v))
		for _, elem := range v {
			out = append(out, goValue(elem))
		}
		return out
	case *starlark.Dict:
		out := make(map[any]any, v.Len())
		for _, item := range v.Items() {
			out[goKey(item[0])] = goValue(item[1])
		}
		return out
	case *starlarkstruct.Struct:
		d := starlark.StringDict{}
		v.ToStringDict(d)
		out := make(map[any]any, len(d))
		for name, member := range d {
			out[name] = goValue(member)
		}
		return out
	default:
		return v
	}
}

// goKey converts a dict key, falling back to its rendered form for
// keys that have no comparable Go counterpart.
func goKey(v starlark.Value) any {
	switch v.(type) {
	case starlark.Tuple, *starlark.List:
		return v.String()
	}
	switch k := goValue(v).(type) {
	case nil, bool, string, int64, float64:
		return k
	default:
		return v.String()
	}
}
